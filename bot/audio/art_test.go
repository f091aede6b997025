package audio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestRenderArtForDisplayNil(t *testing.T) {
	out, err := RenderArtForDisplay(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output for nil input, got %d bytes", len(out))
	}
}

func TestRenderArtForDisplayJPEGPassthrough(t *testing.T) {
	in := encodeTestImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, nil)
	})
	out, err := RenderArtForDisplay(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatal("jpeg input should pass through unchanged")
	}
}

func TestRenderArtForDisplayReencodesPNG(t *testing.T) {
	in := encodeTestImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})
	out, err := RenderArtForDisplay(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(out)); err != nil || format != "jpeg" {
		t.Fatalf("expected jpeg output, got format %q err %v", format, err)
	}
}

func TestRenderArtForDisplayGarbage(t *testing.T) {
	if _, err := RenderArtForDisplay([]byte("not an image")); err == nil {
		t.Fatal("expected error for undecodable input")
	}
}
