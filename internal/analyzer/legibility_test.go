package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestContrastRatio(t *testing.T) {
	assert.InDelta(t, 21.0, contrastRatio(relativeLuminance(color.White), relativeLuminance(color.Black)), 0.01)
	assert.InDelta(t, 1.0, contrastRatio(0.5, 0.5), 1e-9)
}

func TestCheckDarkBackgroundIsLegible(t *testing.T) {
	c := NewChecker()
	r := c.Check(fill(200, 100, color.RGBA{R: 0x10, G: 0x10, B: 0x14, A: 0xff}), 0.4, 0.6, color.White)

	assert.Equal(t, image.Rect(0, 40, 200, 60), r.Band)
	assert.Greater(t, r.Contrast, 15.0)
	assert.Zero(t, r.EdgeDensity)
	assert.Empty(t, r.Busy)
	assert.Empty(t, c.Warnings(r))
}

func TestCheckFlagsLowContrast(t *testing.T) {
	c := NewChecker()
	r := c.Check(fill(200, 100, color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}), 0.4, 0.6, color.White)

	w := c.Warnings(r)
	assert.Len(t, w, 1)
	assert.Contains(t, w[0], "low text contrast")
}

func TestCheckFlagsBusyBackground(t *testing.T) {
	img := fill(200, 100, color.Black)
	// vertical stripes across the band
	for x := 0; x < 200; x += 4 {
		for y := 0; y < 100; y++ {
			img.Set(x, y, color.White)
			img.Set(x+1, y, color.White)
		}
	}

	c := NewChecker()
	r := c.Check(img, 0.25, 0.75, color.Black)
	assert.Greater(t, r.EdgeDensity, c.MaxEdgeDensity)
	assert.NotEmpty(t, r.Busy)

	w := c.Warnings(r)
	assert.Len(t, w, 1)
	assert.True(t, strings.HasPrefix(w[0], "busy background"), w[0])
}

func TestCheckEmptyBand(t *testing.T) {
	c := NewChecker()
	r := c.Check(fill(10, 10, color.White), 0.5, 0.5, color.White)
	assert.True(t, r.Band.Empty())
	assert.Empty(t, c.Warnings(r))
}
