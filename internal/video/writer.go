package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ivlev/text2video/internal/compositor"
)

// Writer is a container-writing session. Every value received from Ready
// grants exactly one Append.
type Writer interface {
	Ready() <-chan struct{}
	Append(buf *compositor.PixelBuffer, pts int64) error
	// Finish marks input finished and blocks until the container is
	// finalized on disk.
	Finish(ctx context.Context) error
	// Abort stops the session after a failure and discards partial output.
	Abort()
}

// WriterFactory opens a writer for path. The encoder uses NewFFmpegWriter
// unless told otherwise.
type WriterFactory func(ctx context.Context, path string, profile Profile, format compositor.PixelFormat) (Writer, error)

// FFmpegWriter pipes raw frames into an ffmpeg process. Append copies the
// pixels into one of QueueDepth staging slices, so the caller can recycle its
// buffer as soon as Append returns; a pump goroutine drains the staging
// queue into ffmpeg's stdin and hands out a readiness token per slot freed.
type FFmpegWriter struct {
	path    string
	profile Profile
	format  compositor.PixelFormat

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	output  syncBuffer
	waitErr error
	waited  sync.Once

	ready    chan struct{}
	staging  chan []byte
	queue    chan []byte
	pumpDone chan struct{}
	stopOnce sync.Once
	closed   atomic.Bool

	next int64 // frames appended

	mu  sync.Mutex
	err error
}

func NewFFmpegWriter(ctx context.Context, path string, profile Profile, format compositor.PixelFormat) (Writer, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	depth := profile.QueueDepth
	if depth <= 0 {
		depth = 4
	}

	w := &FFmpegWriter{
		path:     path,
		profile:  profile,
		format:   format,
		ready:    make(chan struct{}, depth),
		staging:  make(chan []byte, depth),
		queue:    make(chan []byte, depth),
		pumpDone: make(chan struct{}),
	}

	w.cmd = exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(path, profile, format)...)
	w.cmd.Stdout = &w.output
	w.cmd.Stderr = &w.output

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	w.stdin = stdin
	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	frameSize := profile.Width * profile.Height * 4
	for i := 0; i < depth; i++ {
		w.staging <- make([]byte, frameSize)
		w.ready <- struct{}{}
	}
	go w.pump()
	return w, nil
}

func (w *FFmpegWriter) Ready() <-chan struct{} {
	return w.ready
}

func (w *FFmpegWriter) Append(buf *compositor.PixelBuffer, pts int64) error {
	if w.closed.Load() {
		return errWriterClosed
	}
	if err := w.failed(); err != nil {
		return w.pipeError(err)
	}
	if buf.Width != w.profile.Width || buf.Height != w.profile.Height || buf.Format != w.format {
		return fmt.Errorf("buffer %dx%d %s does not match writer %dx%d %s",
			buf.Width, buf.Height, buf.Format, w.profile.Width, w.profile.Height, w.format)
	}
	// rawvideo input is constant frame rate, so only the next slot is valid
	if want := w.next * w.profile.FrameDuration(); pts != want {
		return fmt.Errorf("pts %d out of order, next frame is at %d", pts, want)
	}

	pix := <-w.staging
	copy(pix, buf.Pix)
	w.queue <- pix
	w.next++
	return nil
}

func (w *FFmpegWriter) Finish(ctx context.Context) error {
	w.stop()
	<-w.pumpDone
	w.stdin.Close()

	waitErr := w.wait()
	if err := w.failed(); err != nil {
		return w.pipeError(err)
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", waitErr, w.output.String())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.next == 0 {
		return ErrNoFrames
	}
	if _, err := os.Stat(w.path); err != nil {
		return err
	}
	return nil
}

func (w *FFmpegWriter) Abort() {
	// killing first unblocks a pump stuck on a full pipe
	if w.cmd.Process != nil {
		w.cmd.Process.Kill()
	}
	w.stop()
	<-w.pumpDone
	w.stdin.Close()
	w.wait()
	os.Remove(w.path)
}

// wait reaps ffmpeg once; its output is complete afterwards.
func (w *FFmpegWriter) wait() error {
	w.waited.Do(func() {
		w.waitErr = w.cmd.Wait()
	})
	return w.waitErr
}

// pipeError is returned once a write to ffmpeg failed. A broken pipe means
// ffmpeg already exited, so waiting for it collects its last words.
func (w *FFmpegWriter) pipeError(err error) error {
	w.wait()
	return fmt.Errorf("ffmpeg pipe error: %w, output: %s", err, w.output.String())
}

func (w *FFmpegWriter) stop() {
	w.stopOnce.Do(func() {
		w.closed.Store(true)
		close(w.queue)
	})
}

func (w *FFmpegWriter) pump() {
	defer close(w.pumpDone)
	for pix := range w.queue {
		if w.failed() == nil {
			if _, err := w.stdin.Write(pix); err != nil {
				w.setErr(err)
			}
		}
		w.staging <- pix
		select {
		case w.ready <- struct{}{}:
		default:
		}
	}
}

func (w *FFmpegWriter) failed() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *FFmpegWriter) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func buildFFmpegArgs(path string, p Profile, format compositor.PixelFormat) []string {
	codec := p.Codec
	if codec == "" {
		codec = "libx264"
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", string(format),
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-an",
		"-c:v", codec,
	}
	if p.Bitrate != "" {
		args = append(args, "-b:v", p.Bitrate)
	}

	switch codec {
	case "h264_videotoolbox":
		args = append(args, "-realtime", "0")
	case "h264_nvenc":
		args = append(args, "-preset", "p4")
	default: // libx264
		args = append(args, "-preset", "medium")
	}

	args = append(args,
		"-pix_fmt", "yuv420p",
		"-video_track_timescale", fmt.Sprintf("%d", p.Timescale),
		"-movflags", "+faststart",
		path,
	)
	return args
}

// syncBuffer collects ffmpeg's stdout and stderr while Append may read it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}

var _ Writer = (*FFmpegWriter)(nil)

var errWriterClosed = errors.New("writer closed")
