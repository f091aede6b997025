package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/tagbot/core/logger"
	"log/slog"
)

// FFmpeg implements Pipeline by shelling out to ffmpeg/ffprobe.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg constructs a Pipeline backed by the given tool paths.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

type probeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

// ExtractMetadata reads container-level tags via ffprobe.
func (f *FFmpeg) ExtractMetadata(ctx context.Context, path string) (Metadata, error) {
	meta := Metadata{Title: UnknownTag, Artist: UnknownTag}

	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return meta, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return meta, fmt.Errorf("ffprobe output parse: %w", err)
	}

	for key, value := range probe.Format.Tags {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(key) {
		case "title":
			meta.Title = value
		case "artist":
			meta.Artist = value
		}
	}
	return meta, nil
}

// ExtractArt pulls the attached picture stream, if any. A failing extraction
// is treated as "no art" because most files simply have none.
func (f *FFmpeg) ExtractArt(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-v", "quiet",
		"-i", path,
		"-an",
		"-c:v", "copy",
		"-f", "image2pipe",
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil || len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Trim stream-copies the requested range of src into dst.
func (f *FFmpeg) Trim(ctx context.Context, src, dst string, start float64, end *float64) error {
	args := []string{
		"-v", "error",
		"-i", src,
		"-ss", formatFFmpegSeconds(start),
	}
	if end != nil {
		args = append(args, "-to", formatFFmpegSeconds(*end))
	}
	args = append(args, "-c", "copy", "-y", dst)

	startTime := time.Now()
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg trim %s: %w: %s", src, err, strings.TrimSpace(string(out)))
	}
	logger.AUDIO.Debug("trimmed",
		slog.String("event", "audio.trim"),
		slog.String("src", src),
		slog.String("start", formatFFmpegSeconds(start)),
		slog.Duration("duration", logger.Took(startTime)),
	)
	return nil
}

// ApplyMetadata rewrites tags (and cover art when provided) without touching
// the audio stream. The result replaces the input file.
func (f *FFmpeg) ApplyMetadata(ctx context.Context, path string, meta Metadata, art []byte) error {
	ext := filepath.Ext(path)
	tmp := strings.TrimSuffix(path, ext) + ".tagged" + ext

	args := []string{
		"-v", "error",
		"-i", path,
	}
	if len(art) > 0 {
		args = append(args, "-i", "pipe:0")
	}
	args = append(args, "-map", "0:a")
	if len(art) > 0 {
		args = append(args, "-map", "1:0", "-disposition:v", "attached_pic")
	}
	args = append(args,
		"-c", "copy",
		"-id3v2_version", "3",
		"-metadata", "title="+meta.Title,
		"-metadata", "artist="+meta.Artist,
		"-y", tmp,
	)

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	if len(art) > 0 {
		cmd.Stdin = bytes.NewReader(art)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ffmpeg tag %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace tagged file: %w", err)
	}
	return nil
}

func formatFFmpegSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

