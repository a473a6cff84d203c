package compositor

import (
	"fmt"
	"image"
)

// PixelFormat is the byte order of a PixelBuffer. Both formats are 8 bits per
// channel, 4 bytes per pixel, alpha last.
type PixelFormat string

const (
	BGRA PixelFormat = "bgra"
	RGBA PixelFormat = "rgba"
)

// ParsePixelFormat accepts the names ffmpeg uses for -pixel_format.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch PixelFormat(s) {
	case BGRA, RGBA:
		return PixelFormat(s), nil
	}
	return "", fmt.Errorf("unsupported pixel format %q", s)
}

// PixelBuffer is a fixed-size, tightly packed frame ready for the encoder.
type PixelBuffer struct {
	Width  int
	Height int
	Stride int
	Format PixelFormat
	Pix    []byte
}

func newPixelBuffer(w, h int, f PixelFormat) *PixelBuffer {
	return &PixelBuffer{
		Width:  w,
		Height: h,
		Stride: w * 4,
		Format: f,
		Pix:    make([]byte, w*h*4),
	}
}

// view exposes the buffer as an *image.RGBA sharing Pix. For BGRA buffers
// the channel order is wrong until swizzle runs.
func (b *PixelBuffer) view() *image.RGBA {
	return &image.RGBA{Pix: b.Pix, Stride: b.Stride, Rect: image.Rect(0, 0, b.Width, b.Height)}
}

// swizzle swaps the red and blue channels in place.
func (b *PixelBuffer) swizzle() {
	pix := b.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
