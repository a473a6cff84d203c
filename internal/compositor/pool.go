package compositor

import (
	"errors"
	"sync"
	"sync/atomic"
)

// MaxPixels bounds a single buffer (8K x 8K).
const MaxPixels = 8192 * 8192

var ErrInvalidGeometry = errors.New("invalid buffer geometry")

type poolKey struct {
	width, height int
	format        PixelFormat
}

// BufferPool recycles PixelBuffers per size and format. Each key keeps at
// most capacity idle buffers; Get allocates on a miss and never blocks.
type BufferPool struct {
	capacity int

	mu    sync.RWMutex
	pools map[poolKey]chan *PixelBuffer

	hits   atomic.Int64
	misses atomic.Int64
}

func NewBufferPool(capacity int) *BufferPool {
	if capacity <= 0 {
		capacity = 4
	}
	return &BufferPool{
		capacity: capacity,
		pools:    make(map[poolKey]chan *PixelBuffer),
	}
}

// Get returns an idle buffer of the requested shape or allocates a new one.
// Buffer contents are undefined.
func (p *BufferPool) Get(w, h int, f PixelFormat) (*PixelBuffer, error) {
	if w <= 0 || h <= 0 || w*h > MaxPixels {
		return nil, &BufferAllocationError{Width: w, Height: h, Format: f, Err: ErrInvalidGeometry}
	}
	if _, err := ParsePixelFormat(string(f)); err != nil {
		return nil, &BufferAllocationError{Width: w, Height: h, Format: f, Err: err}
	}

	select {
	case b := <-p.free(poolKey{w, h, f}):
		p.hits.Add(1)
		return b, nil
	default:
	}
	p.misses.Add(1)
	return newPixelBuffer(w, h, f), nil
}

// Put hands b back. Buffers beyond the idle capacity are left to the GC.
func (p *BufferPool) Put(b *PixelBuffer) {
	if b == nil {
		return
	}
	select {
	case p.free(poolKey{b.Width, b.Height, b.Format}) <- b:
	default:
	}
}

// Stats returns how many Gets were served from the pool and how many
// allocated.
func (p *BufferPool) Stats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

func (p *BufferPool) free(key poolKey) chan *PixelBuffer {
	p.mu.RLock()
	ch, ok := p.pools[key]
	p.mu.RUnlock()
	if ok {
		return ch
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double check
	if ch, ok = p.pools[key]; !ok {
		ch = make(chan *PixelBuffer, p.capacity)
		p.pools[key] = ch
	}
	return ch
}
