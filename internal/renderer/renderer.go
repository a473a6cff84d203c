// Package renderer draws a reveal state as a transparent frame: the active
// line at full size in the vertical centre, the other lines at half size
// stacked above and below it.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/ivlev/text2video/internal/reveal"
)

// Align places each line horizontally.
type Align string

const (
	AlignLeading Align = "leading" // flush left, inside a margin of width/20
	AlignCenter  Align = "center"
)

// ParseAlign accepts "leading", "center" or empty for leading.
func ParseAlign(s string) (Align, error) {
	switch a := Align(s); a {
	case AlignLeading, AlignCenter:
		return a, nil
	case "":
		return AlignLeading, nil
	}
	return "", fmt.Errorf("unknown text alignment %q", s)
}

type Options struct {
	Width    int
	Height   int
	FontPath string // empty uses Go Regular
	FontSize float64
	Color    color.Color
	// LineSpacing multiplies the font height of each line.
	LineSpacing float64
	// TransitionFrames is how many frames the block takes to re-centre on a
	// new active line. Zero jumps immediately.
	TransitionFrames int
	Align            Align
}

func DefaultOptions(width, height, fps int) Options {
	return Options{
		Width:            width,
		Height:           height,
		FontSize:         float64(height) / 12,
		Color:            color.White,
		LineSpacing:      1.3,
		TransitionFrames: fps / 4,
		Align:            AlignLeading,
	}
}

// TextRenderer keeps the scroll position from one Render to the next, so
// frames must be rendered in order.
type TextRenderer struct {
	opts     Options
	active   font.Face
	inactive font.Face
	ink      *image.Uniform

	mu     sync.Mutex
	scroll scroll
}

func New(opts Options) (*TextRenderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.FontSize <= 0 {
		opts.FontSize = float64(opts.Height) / 12
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1.3
	}
	if opts.Color == nil {
		opts.Color = color.White
	}
	align, err := ParseAlign(string(opts.Align))
	if err != nil {
		return nil, err
	}
	opts.Align = align

	data := goregular.TTF
	if opts.FontPath != "" {
		b, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	active, err := opentype.NewFace(f, &opentype.FaceOptions{Size: opts.FontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	inactive, err := opentype.NewFace(f, &opentype.FaceOptions{Size: opts.FontSize / 2, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		active.Close()
		return nil, fmt.Errorf("font face: %w", err)
	}

	return &TextRenderer{
		opts:     opts,
		active:   active,
		inactive: inactive,
		ink:      image.NewUniform(opts.Color),
		scroll:   scroll{steps: opts.TransitionFrames},
	}, nil
}

// Animating reports whether the next Render will differ from the last one
// even if the state does not change.
func (r *TextRenderer) Animating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scroll.moving()
}

// Render draws s into a new transparent frame.
func (r *TextRenderer) Render(s reveal.State) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	if len(s.Lines) == 0 {
		return img
	}

	heights := make([]float64, len(s.Lines))
	tops := make([]float64, len(s.Lines))
	y := 0.0
	for i := range s.Lines {
		tops[i] = y
		heights[i] = r.lineHeight(r.face(i, s.Active))
		y += heights[i]
	}

	active := s.Active
	if active >= len(s.Lines) {
		active = len(s.Lines) - 1
	}
	r.mu.Lock()
	r.scroll.target(float64(r.opts.Height)/2 - (tops[active] + heights[active]/2))
	offset := r.scroll.advance()
	r.mu.Unlock()

	for i := range s.Lines {
		top := offset + tops[i]
		if top+heights[i] < 0 || top > float64(r.opts.Height) {
			continue
		}
		text := norm.NFC.String(s.Line(i))
		if text == "" {
			continue
		}
		face := r.face(i, s.Active)
		m := face.Metrics()
		d := &font.Drawer{Dst: img, Src: r.ink, Face: face}
		// centre the glyph box inside the line box
		pad := (heights[i] - float64(m.Height.Round())) / 2
		d.Dot = fixed.Point26_6{
			X: r.lineX(d.MeasureString(text)),
			Y: fixed.I(int(top+pad)) + m.Ascent,
		}
		d.DrawString(text)
	}
	return img
}

// Close releases the font faces.
func (r *TextRenderer) Close() error {
	r.active.Close()
	return r.inactive.Close()
}

func (r *TextRenderer) face(line, active int) font.Face {
	if line == active {
		return r.active
	}
	return r.inactive
}

func (r *TextRenderer) lineX(width fixed.Int26_6) fixed.Int26_6 {
	if r.opts.Align == AlignCenter {
		return (fixed.I(r.opts.Width) - width) / 2
	}
	return fixed.I(r.opts.Width / 20)
}

func (r *TextRenderer) lineHeight(face font.Face) float64 {
	return float64(face.Metrics().Height.Round()) * r.opts.LineSpacing
}
