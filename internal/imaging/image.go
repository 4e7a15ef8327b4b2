package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// Service provides image processing operations for cover art.
//
// Service is used to:
//   - Normalize album art into a fixed square thumbnail with black padding
//   - Convert images to JPEG format (for embedding and upload)
//
// Example usage:
//
//	svc := imaging.NewService()
//
//	// Download cover art
//	imageData, _ := fetchArtwork(url)
//
//	// Produce a 320x320 JPEG thumbnail
//	thumb, _ := svc.ResizeWithPadding(ctx, imageData, 320, 320)
type Service struct{}

// NewService creates a new Service.
func NewService() *Service {
	return &Service{}
}

// ResizeWithPadding scales an image to fit inside width x height, preserving
// aspect ratio, and centers it on a black canvas of exactly those dimensions.
//
// Parameters:
//   - ctx: Context for cancellation (currently unused)
//   - data: Original image data (JPEG, PNG)
//   - width: Canvas width in pixels
//   - height: Canvas height in pixels
//
// Returns the padded image as JPEG-encoded bytes.
//
// The Catmull-Rom algorithm is used for high-quality scaling.
//
// Example:
//
//	// A 640x480 image becomes a 320x240 image centered on a 320x320 canvas
//	thumb, err := svc.ResizeWithPadding(ctx, imageData, 320, 320)
func (s *Service) ResizeWithPadding(ctx context.Context, data []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	// Scale to fit, preserving aspect ratio.
	scaledW := width
	scaledH := height
	ratio := float64(srcW) / float64(srcH)
	if float64(width)/float64(height) > ratio {
		scaledW = int(float64(height) * ratio)
	} else {
		scaledH = int(float64(width) / ratio)
	}
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	offsetX := (width - scaledW) / 2
	offsetY := (height - scaledH) / 2
	target := image.Rect(offsetX, offsetY, offsetX+scaledW, offsetY+scaledH)
	draw.CatmullRom.Scale(canvas, target, img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ConvertToJPEG converts an image to JPEG format.
//
// This is useful for:
//   - Ensuring consistent format for embedded cover art
//   - Better compatibility with downstream players
//
// Returns the image as JPEG-encoded bytes with 90% quality.
//
// Example:
//
//	pngData, _ := fetchArtwork("cover.png")
//	jpegData, err := svc.ConvertToJPEG(ctx, pngData)
func (s *Service) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Dimensions returns the pixel width and height of an encoded image.
// Returns 0, 0 if the image cannot be decoded.
func Dimensions(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
