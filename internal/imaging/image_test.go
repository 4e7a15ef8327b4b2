package imaging

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, w, h int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestResizeWithPadding(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"landscape", 640, 480},
		{"portrait", 300, 600},
		{"square", 100, 100},
		{"tiny", 1, 1},
	}

	svc := NewService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := encodeTestImage(t, tt.w, tt.h, "jpeg")

			out, err := svc.ResizeWithPadding(context.Background(), src, 320, 320)
			if err != nil {
				t.Fatalf("ResizeWithPadding() error = %v", err)
			}

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decoding output: %v", err)
			}
			if format != "jpeg" {
				t.Errorf("output format = %q, want jpeg", format)
			}
			if cfg.Width != 320 || cfg.Height != 320 {
				t.Errorf("output dimensions = %dx%d, want 320x320", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestResizeWithPadding_InvalidInput(t *testing.T) {
	svc := NewService()
	if _, err := svc.ResizeWithPadding(context.Background(), []byte("not an image"), 320, 320); err == nil {
		t.Error("expected error for undecodable input")
	}
}

func TestConvertToJPEG(t *testing.T) {
	svc := NewService()
	src := encodeTestImage(t, 32, 32, "png")

	out, err := svc.ConvertToJPEG(context.Background(), src)
	if err != nil {
		t.Fatalf("ConvertToJPEG() error = %v", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
}

func TestDimensions(t *testing.T) {
	src := encodeTestImage(t, 48, 24, "jpeg")
	w, h := Dimensions(src)
	if w != 48 || h != 24 {
		t.Errorf("Dimensions() = %dx%d, want 48x24", w, h)
	}

	w, h = Dimensions([]byte("garbage"))
	if w != 0 || h != 0 {
		t.Errorf("Dimensions(garbage) = %dx%d, want 0x0", w, h)
	}
}
