package audio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

// RenderArtForDisplay converts cover art into a JPEG that Telegram accepts as
// a photo or thumbnail. JPEG input is passed through untouched; other formats
// are re-encoded. A nil input yields a nil output.
func RenderArtForDisplay(art []byte) ([]byte, error) {
	if len(art) == 0 {
		return nil, nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(art))
	if err != nil {
		return nil, fmt.Errorf("decode cover art: %w", err)
	}
	if format == "jpeg" {
		return art, nil
	}

	img, _, err := image.Decode(bytes.NewReader(art))
	if err != nil {
		return nil, fmt.Errorf("decode cover art: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode cover art: %w", err)
	}
	return buf.Bytes(), nil
}
