package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

// DefaultPosterWidth is used when callers pass a non-positive width.
const DefaultPosterWidth = 320

// FrameGrabber extracts one encoded frame of a media blob.
type FrameGrabber interface {
	Frame(ctx context.Context, data []byte, at float64) ([]byte, error)
}

// Poster renders the frame at the given position as a JPEG scaled to width.
// Without data it renders the placeholder poster.
func Poster(ctx context.Context, g FrameGrabber, data []byte, at float64, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultPosterWidth
	}
	if len(data) == 0 {
		return Placeholder(width)
	}
	if err := ValidatePosition(at); err != nil {
		return nil, err
	}
	frame, err := g.Frame(ctx, data, at)
	if err != nil {
		return nil, fmt.Errorf("poster frame: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("poster decode: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("poster encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Placeholder renders a plain 16:9 poster shown before a clip is chosen.
func Placeholder(width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultPosterWidth
	}
	img := imaging.New(width, max(width*9/16, 1), color.NRGBA{R: 22, G: 101, B: 52, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
