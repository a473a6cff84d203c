package compositor

import "fmt"

// CompositionError means frame index could not be loaded or decoded.
type CompositionError struct {
	Index int
	Err   error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composite frame %d: %v", e.Index, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// BufferAllocationError means neither the pool nor a fresh allocation could
// supply a buffer of the requested shape.
type BufferAllocationError struct {
	Width, Height int
	Format        PixelFormat
	Err           error
}

func (e *BufferAllocationError) Error() string {
	return fmt.Sprintf("allocate %dx%d %s buffer: %v", e.Width, e.Height, e.Format, e.Err)
}

func (e *BufferAllocationError) Unwrap() error { return e.Err }
