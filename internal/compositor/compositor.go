// Package compositor turns stored frames into encoder-ready pixel buffers:
// each frame is drawn over a fixed background at the output resolution.
package compositor

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// FrameSource is the read side of the frame store.
type FrameSource interface {
	Load(index int) ([]byte, error)
}

type Options struct {
	Width    int
	Height   int
	Format   PixelFormat
	PoolSize int
}

type Compositor struct {
	frames     FrameSource
	background *image.RGBA
	width      int
	height     int
	format     PixelFormat
	pool       *BufferPool
}

// New prepares a compositor. background is scaled to the output size when
// it differs and flattened onto black; nil gives a plain black background.
func New(frames FrameSource, background image.Image, opts Options) (*Compositor, error) {
	if opts.Format == "" {
		opts.Format = BGRA
	}
	if _, err := ParsePixelFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.Width*opts.Height > MaxPixels {
		return nil, &BufferAllocationError{Width: opts.Width, Height: opts.Height, Format: opts.Format, Err: ErrInvalidGeometry}
	}

	return &Compositor{
		frames:     frames,
		background: flatten(background, opts.Width, opts.Height),
		width:      opts.Width,
		height:     opts.Height,
		format:     opts.Format,
		pool:       NewBufferPool(opts.PoolSize),
	}, nil
}

// Size is the output frame size every buffer is composited at.
func (c *Compositor) Size() (width, height int) { return c.width, c.height }

// Format is the byte order of the buffers returned by Buffer.
func (c *Compositor) Format() PixelFormat { return c.format }

// Pool is the buffer pool Buffer draws from; buffers go back through Release.
func (c *Compositor) Pool() *BufferPool { return c.pool }

// Buffer composites frame index and returns it in a pooled buffer. The
// caller owns the buffer until it hands it to Release.
func (c *Compositor) Buffer(index int) (*PixelBuffer, error) {
	data, err := c.frames.Load(index)
	if err != nil {
		return nil, &CompositionError{Index: index, Err: err}
	}
	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &CompositionError{Index: index, Err: err}
	}

	buf, err := c.pool.Get(c.width, c.height, c.format)
	if err != nil {
		return nil, err
	}

	dst := buf.view()
	copy(dst.Pix, c.background.Pix)
	fb := frame.Bounds()
	if fb.Dx() == c.width && fb.Dy() == c.height {
		draw.Draw(dst, dst.Rect, frame, fb.Min, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Rect, frame, fb, draw.Over, nil)
	}
	if c.format == BGRA {
		buf.swizzle()
	}
	return buf, nil
}

// Release returns buf to the pool.
func (c *Compositor) Release(buf *PixelBuffer) {
	c.pool.Put(buf)
}

func flatten(bg image.Image, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	if bg == nil {
		return out
	}
	b := bg.Bounds()
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(out, out.Rect, bg, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(out, out.Rect, bg, b, draw.Over, nil)
	}
	return out
}
