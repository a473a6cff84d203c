// Package capture samples the reveal state at the output frame rate and
// stores every sample as a PNG frame.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/ivlev/text2video/internal/reveal"
)

// StateSource is satisfied by *reveal.Scheduler.
type StateSource interface {
	Snapshot() (reveal.State, uint64)
}

// FrameRenderer is satisfied by *renderer.TextRenderer.
type FrameRenderer interface {
	Render(s reveal.State) *image.RGBA
	Animating() bool
}

// FrameSink is satisfied by *framestore.Store.
type FrameSink interface {
	Save(data []byte) (int, error)
}

type Recorder struct {
	source   StateSource
	renderer FrameRenderer
	sink     FrameSink
	interval time.Duration
	logger   *slog.Logger

	encoder png.Encoder
	last    []byte
	version uint64
	renders int
}

func NewRecorder(source StateSource, r FrameRenderer, sink FrameSink, fps int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if fps <= 0 {
		fps = 60
	}
	return &Recorder{
		source:   source,
		renderer: r,
		sink:     sink,
		interval: time.Second / time.Duration(fps),
		logger:   logger,
		encoder:  png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &bufferPool{}},
	}
}

// Record stores frames until ctx ends, keeping the frame count in step with
// wall time: frame i shows the state at i/fps after the start. When a
// render falls behind, the frame in hand is stored for every interval that
// elapsed meanwhile. The state is only re-rendered when its version changed
// or the renderer is still animating. Record returns the number of frames
// stored; ending ctx is not an error.
func (r *Recorder) Record(ctx context.Context) (int, error) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	start := time.Now()
	n := 0
	for ctx.Err() == nil {
		due := int(time.Since(start)/r.interval) + 1
		if n < due {
			if err := r.render(); err != nil {
				return n, err
			}
			for ; n < due; n++ {
				if _, err := r.sink.Save(r.last); err != nil {
					return n, err
				}
			}
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	r.logger.Debug("capture stopped", "frames", n, "renders", r.renders, "elapsed", time.Since(start))
	return n, nil
}

// Renders is how many of the stored frames were freshly rendered.
func (r *Recorder) Renders() int { return r.renders }

func (r *Recorder) render() error {
	state, version := r.source.Snapshot()
	if r.last != nil && version == r.version && !r.renderer.Animating() {
		return nil
	}
	var buf bytes.Buffer
	if err := r.encoder.Encode(&buf, r.renderer.Render(state)); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	r.last = buf.Bytes()
	r.version = version
	r.renders++
	return nil
}

type bufferPool struct {
	b *png.EncoderBuffer
}

func (p *bufferPool) Get() *png.EncoderBuffer { return p.b }
func (p *bufferPool) Put(b *png.EncoderBuffer) { p.b = b }
