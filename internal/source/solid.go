package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// SolidSource generates a single page filled with one colour, optionally
// carrying a QR code badge in the bottom-right corner.
type SolidSource struct {
	width, height int
	fill          color.RGBA
	qrText        string
}

func NewSolidSource(width, height int, hex, qrText string) (*SolidSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid background size %dx%d", width, height)
	}
	fill := color.RGBA{0x10, 0x10, 0x14, 0xff}
	if hex != "" {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		fill = c
	}
	return &SolidSource{width: width, height: height, fill: fill, qrText: qrText}, nil
}

func (s *SolidSource) PageCount() int { return 1 }

func (s *SolidSource) GetPageDimensions(index int) (float64, float64, error) {
	return float64(s.width), float64(s.height), nil
}

func (s *SolidSource) RenderPage(index int, dpi int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(s.fill), image.Point{}, draw.Src)
	if s.qrText == "" {
		return img, nil
	}

	q, err := qrcode.New(s.qrText, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr badge: %w", err)
	}
	size := s.height / 6
	margin := size / 4
	badge := q.Image(size)
	at := image.Pt(s.width-size-margin, s.height-size-margin)
	draw.Draw(img, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, badge, image.Point{}, draw.Over)
	return img, nil
}

func (s *SolidSource) Close() error { return nil }

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
