package video

import (
	"errors"
	"fmt"
)

var ErrNoFrames = errors.New("no frames to encode")

// WriterInitError means the container writer could not be created at Path.
type WriterInitError struct {
	Path string
	Err  error
}

func (e *WriterInitError) Error() string {
	return fmt.Sprintf("create writer %s: %v", e.Path, e.Err)
}

func (e *WriterInitError) Unwrap() error { return e.Err }

// AppendError means the writer rejected frame Index at PTS.
type AppendError struct {
	Index int
	PTS   int64
	Err   error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append frame %d at pts %d: %v", e.Index, e.PTS, e.Err)
}

func (e *AppendError) Unwrap() error { return e.Err }

type FinalizeError struct {
	Path string
	Err  error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize %s: %v", e.Path, e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }
