package audio

import "context"

// UnknownTag is the display value used when a tag is missing from the file.
const UnknownTag = "???"

// Metadata carries the editable tags of an audio file.
type Metadata struct {
	Title  string
	Artist string
}

// Pipeline abstracts the audio toolchain used by the edit flow. The bot only
// needs tag inspection, cover extraction, stream-copy trimming, and tag
// rewriting; everything else about codecs stays behind this interface.
type Pipeline interface {
	// ExtractMetadata reads title/artist tags, substituting UnknownTag for
	// missing values. It fails only when the file cannot be inspected at all.
	ExtractMetadata(ctx context.Context, path string) (Metadata, error)

	// ExtractArt returns the embedded cover picture, or nil when the file has
	// none.
	ExtractArt(ctx context.Context, path string) ([]byte, error)

	// Trim writes the [start, end] range of src to dst without re-encoding.
	// A nil end means "until the end of the track".
	Trim(ctx context.Context, src, dst string, start float64, end *float64) error

	// ApplyMetadata rewrites tags and cover art of the file in place.
	ApplyMetadata(ctx context.Context, path string, meta Metadata, art []byte) error
}
