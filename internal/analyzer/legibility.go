// Package analyzer checks how well revealed text will read over a
// background.
package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Report describes the background under the text band.
type Report struct {
	Band        image.Rectangle
	Luminance   float64 // mean relative luminance, 0..1
	Contrast    float64 // WCAG contrast ratio of the ink against Luminance
	EdgeDensity float64 // share of band pixels on a strong edge
	Busy        []image.Rectangle
}

// Checker flags backgrounds the text will not stand out from.
type Checker struct {
	MinContrast    float64
	MaxEdgeDensity float64
	EdgeThreshold  float64 // Sobel gradient magnitude on 0..255 luminance
	MinBlockArea   int     // smallest busy region reported, in pixels²
}

func NewChecker() *Checker {
	return &Checker{
		MinContrast:    3.0,
		MaxEdgeDensity: 0.15,
		EdgeThreshold:  30.0,
		MinBlockArea:   500,
	}
}

// Check measures the horizontal band of bg between top and bottom, given as
// fractions of its height.
func (c *Checker) Check(bg image.Image, top, bottom float64, ink color.Color) Report {
	b := bg.Bounds()
	band := image.Rect(b.Min.X, b.Min.Y+int(top*float64(b.Dy())), b.Max.X, b.Min.Y+int(bottom*float64(b.Dy())))
	band = band.Intersect(b)
	r := Report{Band: band}
	if band.Empty() {
		return r
	}

	gray, mean := luminance(bg, band)
	r.Luminance = mean
	r.Contrast = contrastRatio(relativeLuminance(ink), mean)

	edges, n := sobel(gray, c.EdgeThreshold)
	r.EdgeDensity = float64(n) / float64(band.Dx()*band.Dy())
	for _, rect := range findRegions(dilate(edges, 5, 2)) {
		if rect.Dx()*rect.Dy() >= c.MinBlockArea {
			r.Busy = append(r.Busy, rect)
		}
	}
	return r
}

// Warnings lists what in r falls outside the checker's limits.
func (c *Checker) Warnings(r Report) []string {
	var out []string
	if r.Band.Empty() {
		return out
	}
	if r.Contrast < c.MinContrast {
		out = append(out, fmt.Sprintf("low text contrast %.2f:1 (want %.1f:1)", r.Contrast, c.MinContrast))
	}
	if r.EdgeDensity > c.MaxEdgeDensity {
		out = append(out, fmt.Sprintf("busy background behind text: %.0f%% edges, %d regions", r.EdgeDensity*100, len(r.Busy)))
	}
	return out
}

// luminance returns the band as 8-bit relative luminance plus its mean.
func luminance(img image.Image, band image.Rectangle) (*image.Gray, float64) {
	gray := image.NewGray(band)
	sum := 0.0
	for y := band.Min.Y; y < band.Max.Y; y++ {
		for x := band.Min.X; x < band.Max.X; x++ {
			l := relativeLuminance(img.At(x, y))
			sum += l
			gray.SetGray(x, y, color.Gray{Y: uint8(math.Round(l * 255))})
		}
	}
	return gray, sum / float64(band.Dx()*band.Dy())
}

// relativeLuminance follows the WCAG 2 definition on sRGB.
func relativeLuminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b)
}

func linear(v uint32) float64 {
	s := float64(v) / 0xffff
	if s <= 0.03928 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

func contrastRatio(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	return (a + 0.05) / (b + 0.05)
}

// sobel marks pixels whose gradient magnitude exceeds threshold and counts
// them.
func sobel(gray *image.Gray, threshold float64) (*image.Gray, int) {
	bounds := gray.Bounds()
	edges := image.NewGray(bounds)
	gx := [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	n := 0
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += p * float64(gx[ky+1][kx+1])
					sumY += p * float64(gy[ky+1][kx+1])
				}
			}
			if math.Hypot(sumX, sumY) > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
				n++
			}
		}
	}
	return edges, n
}

// dilate grows edge pixels so that strokes of one glyph or texture merge.
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	bounds := img.Bounds()
	half := kernelSize / 2
	result := img
	for iter := 0; iter < iterations; iter++ {
		next := image.NewGray(bounds)
		for y := bounds.Min.Y + half; y < bounds.Max.Y-half; y++ {
			for x := bounds.Min.X + half; x < bounds.Max.X-half; x++ {
				var maxVal uint8
				for ky := -half; ky <= half && maxVal < 255; ky++ {
					for kx := -half; kx <= half; kx++ {
						if v := result.GrayAt(x+kx, y+ky).Y; v > maxVal {
							maxVal = v
						}
					}
				}
				next.SetGray(x, y, color.Gray{Y: maxVal})
			}
		}
		result = next
	}
	return result
}

// findRegions returns the bounding boxes of connected marked regions.
func findRegions(img *image.Gray) []image.Rectangle {
	bounds := img.Bounds()
	visited := make([]bool, bounds.Dx()*bounds.Dy())
	idx := func(x, y int) int { return (y-bounds.Min.Y)*bounds.Dx() + x - bounds.Min.X }

	var regions []image.Rectangle
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if visited[idx(x, y)] || img.GrayAt(x, y).Y <= 128 {
				continue
			}
			r := image.Rect(x, y, x+1, y+1)
			stack := []image.Point{{X: x, Y: y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if !p.In(bounds) || visited[idx(p.X, p.Y)] || img.GrayAt(p.X, p.Y).Y <= 128 {
					continue
				}
				visited[idx(p.X, p.Y)] = true
				r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				stack = append(stack,
					image.Point{X: p.X + 1, Y: p.Y},
					image.Point{X: p.X - 1, Y: p.Y},
					image.Point{X: p.X, Y: p.Y + 1},
					image.Point{X: p.X, Y: p.Y - 1},
				)
			}
			regions = append(regions, r)
		}
	}
	return regions
}
