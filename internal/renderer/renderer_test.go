package renderer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/text2video/internal/jamo"
	"github.com/ivlev/text2video/internal/reveal"
)

func state(active int, lines ...string) reveal.State {
	s := reveal.State{Active: active}
	for _, l := range lines {
		s.Lines = append(s.Lines, jamo.Units(l))
	}
	return s
}

// inkCols returns the first and last column holding any opaque pixel.
func inkCols(img *image.RGBA) (first, last int) {
	first, last = -1, -1
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if img.RGBAAt(x, y).A != 0 {
				if first < 0 {
					first = x
				}
				last = x
				break
			}
		}
	}
	return first, last
}

// inkRows returns the first and last row holding any opaque pixel.
func inkRows(img *image.RGBA) (first, last int) {
	first, last = -1, -1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				if first < 0 {
					first = y
				}
				last = y
				break
			}
		}
	}
	return first, last
}

func TestEaseInOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, easeInOutCubic(0))
	assert.Equal(t, 0.5, easeInOutCubic(0.5))
	assert.Equal(t, 1.0, easeInOutCubic(1))
	assert.Less(t, easeInOutCubic(0.25), 0.25)
	assert.Greater(t, easeInOutCubic(0.75), 0.75)
}

func TestScroll(t *testing.T) {
	s := scroll{steps: 4}
	s.target(100)
	assert.False(t, s.moving())
	assert.Equal(t, 100.0, s.advance())

	s.target(0)
	assert.True(t, s.moving())
	got := []float64{s.advance(), s.advance(), s.advance(), s.advance(), s.advance()}
	assert.Equal(t, 100.0, got[0])
	assert.Equal(t, 50.0, got[2])
	assert.Equal(t, 0.0, got[4])
	assert.False(t, s.moving())
}

func TestRenderEmptyStateIsTransparent(t *testing.T) {
	r, err := New(DefaultOptions(160, 90, 60))
	require.NoError(t, err)
	defer r.Close()

	img := r.Render(state(0, ""))
	assert.Equal(t, image.Rect(0, 0, 160, 90), img.Bounds())
	first, _ := inkRows(img)
	assert.Equal(t, -1, first)
}

func TestRenderCentresActiveLine(t *testing.T) {
	opts := DefaultOptions(320, 180, 60)
	opts.TransitionFrames = 0
	r, err := New(opts)
	require.NoError(t, err)
	defer r.Close()

	img := r.Render(state(0, "Hello"))
	first, last := inkRows(img)
	require.GreaterOrEqual(t, first, 0)
	mid := (first + last) / 2
	assert.InDelta(t, 90, mid, 12)
}

func TestRenderAlignment(t *testing.T) {
	opts := DefaultOptions(320, 180, 60)
	opts.TransitionFrames = 0

	leading, err := New(opts)
	require.NoError(t, err)
	defer leading.Close()
	first, last := inkCols(leading.Render(state(0, "Hi")))
	require.GreaterOrEqual(t, first, 0)
	// 320/20 margin, plus the glyph's left side bearing
	assert.InDelta(t, 16, first, 6)
	assert.Less(t, last, 160)

	opts.Align = AlignCenter
	centred, err := New(opts)
	require.NoError(t, err)
	defer centred.Close()
	first, last = inkCols(centred.Render(state(0, "Hi")))
	assert.InDelta(t, 160, (first+last)/2, 6)

	opts.Align = "justify"
	_, err = New(opts)
	assert.Error(t, err)
}

func TestRenderEasesToNewActiveLine(t *testing.T) {
	opts := DefaultOptions(320, 180, 60)
	opts.TransitionFrames = 6
	r, err := New(opts)
	require.NoError(t, err)
	defer r.Close()

	r.Render(state(0, "one", ""))
	assert.False(t, r.Animating())

	r.Render(state(1, "one", "tw"))
	assert.True(t, r.Animating())
	for i := 0; i < 6; i++ {
		r.Render(state(1, "one", "two"))
	}
	assert.False(t, r.Animating())

	// settled: the active second line is centred, the first sits above it
	img := r.Render(state(1, "one", "two"))
	first, last := inkRows(img)
	assert.Less(t, first, 90)
	assert.Greater(t, last, 90)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Options{Width: 0, Height: 10})
	assert.Error(t, err)

	_, err = New(Options{Width: 10, Height: 10, FontPath: "/does/not/exist.ttf"})
	assert.Error(t, err)
}
