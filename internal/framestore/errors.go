package framestore

import (
	"errors"
	"fmt"
)

// ErrFrameNotFound matches every *FrameNotFoundError via errors.Is.
var ErrFrameNotFound = errors.New("frame not found")

// StorageError is a failure to create, read, write or empty the store
// directory.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("frame store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type FrameNotFoundError struct {
	Index int
	Path  string
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("frame %d not found (%s)", e.Index, e.Path)
}

func (e *FrameNotFoundError) Is(target error) bool {
	return target == ErrFrameNotFound
}
