// Package video encodes the frames of a capture session into a single H.264
// file with evenly spaced presentation timestamps.
package video

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/ivlev/text2video/internal/compositor"
)

// FrameStore is the part of the frame store the encoder drives.
type FrameStore interface {
	FrameCount() int
	Purge() error
}

// BufferSource hands out composited buffers by frame index.
type BufferSource interface {
	Buffer(index int) (*compositor.PixelBuffer, error)
	Release(buf *compositor.PixelBuffer)
	Format() compositor.PixelFormat
}

type Encoder struct {
	Profile    Profile
	OutputPath string
	NewWriter  WriterFactory
	Logger     *slog.Logger
	// Progress, if set, is called after every appended frame.
	Progress func(done, total int)
}

func NewEncoder(profile Profile, outputPath string) *Encoder {
	return &Encoder{
		Profile:    profile,
		OutputPath: outputPath,
		NewWriter:  NewFFmpegWriter,
		Logger:     slog.Default(),
	}
}

// Encode writes every stored frame, in index order, to OutputPath and purges
// the store once the container is finalized. A failure at any step returns
// before the purge so the captured frames stay on disk. If only the purge
// fails, the path is returned together with the error.
func (e *Encoder) Encode(ctx context.Context, store FrameStore, frames BufferSource) (string, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := e.Profile.Validate(); err != nil {
		return "", err
	}
	total := store.FrameCount()
	if total == 0 {
		return "", ErrNoFrames
	}

	if err := os.Remove(e.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", &WriterInitError{Path: e.OutputPath, Err: err}
	}
	newWriter := e.NewWriter
	if newWriter == nil {
		newWriter = NewFFmpegWriter
	}
	w, err := newWriter(ctx, e.OutputPath, e.Profile, frames.Format())
	if err != nil {
		return "", &WriterInitError{Path: e.OutputPath, Err: err}
	}

	start := time.Now()
	logger.Info("encoding started", "frames", total, "path", e.OutputPath,
		"fps", e.Profile.FPS, "size", fmt.Sprintf("%dx%d", e.Profile.Width, e.Profile.Height))

	for i := 0; i < store.FrameCount(); i++ {
		select {
		case <-ctx.Done():
			w.Abort()
			return "", fmt.Errorf("encoding interrupted at frame %d: %w", i, ctx.Err())
		case <-w.Ready():
		}

		pts := e.Profile.PTS(i)
		buf, err := frames.Buffer(i)
		if err != nil {
			w.Abort()
			return "", err
		}
		err = w.Append(buf, pts)
		frames.Release(buf)
		if err != nil {
			w.Abort()
			return "", &AppendError{Index: i, PTS: pts, Err: err}
		}
		if e.Progress != nil {
			e.Progress(i+1, total)
		}
	}

	if err := w.Finish(ctx); err != nil {
		return "", &FinalizeError{Path: e.OutputPath, Err: err}
	}
	logger.Info("encoding finished", "frames", total, "path", e.OutputPath, "elapsed", time.Since(start))

	if err := store.Purge(); err != nil {
		return e.OutputPath, fmt.Errorf("purge frames after encoding: %w", err)
	}
	return e.OutputPath, nil
}
