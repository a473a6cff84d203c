package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/text2video/internal/compositor"
	"github.com/ivlev/text2video/internal/framestore"
	"github.com/ivlev/text2video/internal/system"
)

// fakeWriter hands out readiness tokens slowly and records every append.
type fakeWriter struct {
	ready    chan struct{}
	stopFeed chan struct{}

	mu        sync.Mutex
	pts       []int64
	granted   int
	failAt    int
	finishErr error
	finished  bool
	aborted   bool
}

func newFakeWriter(failAt int) *fakeWriter {
	w := &fakeWriter{ready: make(chan struct{}), stopFeed: make(chan struct{}), failAt: failAt}
	go func() {
		for {
			// readiness drops out now and then
			time.Sleep(time.Millisecond)
			w.mu.Lock()
			w.granted++
			w.mu.Unlock()
			select {
			case w.ready <- struct{}{}:
			case <-w.stopFeed:
				return
			}
		}
	}()
	return w
}

func (w *fakeWriter) Ready() <-chan struct{} { return w.ready }

func (w *fakeWriter) Append(buf *compositor.PixelBuffer, pts int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pts) >= w.granted {
		return errors.New("append without readiness")
	}
	if w.failAt >= 0 && len(w.pts) == w.failAt {
		return errors.New("writer rejected buffer")
	}
	w.pts = append(w.pts, pts)
	return nil
}

func (w *fakeWriter) Finish(ctx context.Context) error {
	close(w.stopFeed)
	w.finished = true
	return w.finishErr
}

func (w *fakeWriter) Abort() {
	close(w.stopFeed)
	w.aborted = true
}

func factory(w Writer) WriterFactory {
	return func(ctx context.Context, path string, profile Profile, format compositor.PixelFormat) (Writer, error) {
		return w, nil
	}
}

func smallProfile() Profile {
	p := DefaultProfile()
	p.Width, p.Height = 64, 36
	return p
}

func session(t *testing.T, n int, p Profile) (*framestore.Store, *compositor.Compositor) {
	t.Helper()
	store, err := framestore.New(filepath.Join(t.TempDir(), "frames"), framestore.Options{SessionID: "enc"})
	require.NoError(t, err)
	require.NoError(t, store.Reset())

	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
		for x := 0; x <= i && x < p.Width; x++ {
			img.Set(x, p.Height/2, color.White)
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		_, err := store.Save(buf.Bytes())
		require.NoError(t, err)
	}

	comp, err := compositor.New(store, nil, compositor.Options{Width: p.Width, Height: p.Height})
	require.NoError(t, err)
	return store, comp
}

func TestEncodeAppendsInOrderWithEvenTimestamps(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 10, p)
	w := newFakeWriter(-1)

	enc := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4"))
	enc.NewWriter = factory(w)
	var progress []int
	enc.Progress = func(done, total int) {
		assert.Equal(t, 10, total)
		progress = append(progress, done)
	}

	path, err := enc.Encode(context.Background(), store, comp)
	require.NoError(t, err)
	assert.Equal(t, enc.OutputPath, path)

	want := make([]int64, 10)
	for i := range want {
		want[i] = int64(i) * (Timescale / 60)
	}
	assert.Equal(t, want, w.pts)
	assert.True(t, w.finished)
	assert.False(t, w.aborted)
	assert.Len(t, progress, 10)
	assert.Equal(t, 0, store.FrameCount())
}

func TestEncodeAppendFailureKeepsFrames(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 5, p)
	w := newFakeWriter(2)

	enc := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4"))
	enc.NewWriter = factory(w)

	_, err := enc.Encode(context.Background(), store, comp)
	var ae *AppendError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 2, ae.Index)
	assert.Equal(t, p.PTS(2), ae.PTS)
	assert.True(t, w.aborted)
	assert.Equal(t, 5, store.FrameCount())
	assert.FileExists(t, store.FramePath(4))
}

func TestEncodeFinalizeFailureKeepsFrames(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 3, p)
	w := newFakeWriter(-1)
	w.finishErr = errors.New("moov atom not written")

	enc := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4"))
	enc.NewWriter = factory(w)

	_, err := enc.Encode(context.Background(), store, comp)
	var fe *FinalizeError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, store.FrameCount())
}

func TestEncodeWriterInitFailure(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 1, p)

	enc := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4"))
	enc.NewWriter = func(ctx context.Context, path string, profile Profile, format compositor.PixelFormat) (Writer, error) {
		return nil, errors.New("permission denied")
	}

	_, err := enc.Encode(context.Background(), store, comp)
	var we *WriterInitError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, enc.OutputPath, we.Path)
	assert.Equal(t, 1, store.FrameCount())
}

func TestEncodeCompositionFailureAborts(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 2, p)
	require.NoError(t, os.WriteFile(store.FramePath(1), []byte("garbage"), 0644))
	w := newFakeWriter(-1)

	enc := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4"))
	enc.NewWriter = factory(w)

	_, err := enc.Encode(context.Background(), store, comp)
	var ce *compositor.CompositionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Index)
	assert.True(t, w.aborted)
	assert.Equal(t, 2, store.FrameCount())
}

func TestEncodeRemovesPriorOutput(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 1, p)
	out := filepath.Join(store.Dir(), "reveal.mp4")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0644))

	var sawOld bool
	enc := NewEncoder(p, out)
	enc.NewWriter = func(ctx context.Context, path string, profile Profile, format compositor.PixelFormat) (Writer, error) {
		_, err := os.Stat(path)
		sawOld = err == nil
		return newFakeWriter(-1), nil
	}
	_, err := enc.Encode(context.Background(), store, comp)
	require.NoError(t, err)
	assert.False(t, sawOld)
}

func TestEncodeNoFrames(t *testing.T) {
	p := smallProfile()
	store, comp := session(t, 0, p)
	_, err := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4")).Encode(context.Background(), store, comp)
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())
	assert.Equal(t, int64(10), p.FrameDuration())
	assert.Equal(t, int64(30), p.PTS(3))
	assert.InDelta(t, 0.05, p.Seconds(p.PTS(3)), 1e-9)

	p.FPS = 7
	assert.Error(t, p.Validate())
	p = DefaultProfile()
	p.Width = 1921
	assert.Error(t, p.Validate())
}

func TestBuildFFmpegArgs(t *testing.T) {
	args := buildFFmpegArgs("/tmp/out.mp4", DefaultProfile(), compositor.BGRA)
	assert.Contains(t, args, "bgra")
	assert.Contains(t, args, "1920x1080")
	assert.Contains(t, args, "8M")
	assert.Contains(t, args, "600")
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}

func TestFFmpegEncode(t *testing.T) {
	if !system.HasFFmpeg() {
		t.Skip("ffmpeg not available")
	}
	p := smallProfile()
	store, comp := session(t, 12, p)

	enc := NewEncoder(p, filepath.Join(store.Dir(), "reveal.mp4"))
	path, err := enc.Encode(context.Background(), store, comp)
	require.NoError(t, err)
	assert.Equal(t, 0, store.FrameCount())

	ctx := context.Background()
	info, err := system.ProbeVideo(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "h264", info.Codec)
	assert.Equal(t, 12, info.Frames)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 36, info.Height)
	assert.InDelta(t, 60.0, info.FPS, 0.01)

	times, err := system.ProbeFrameTimes(ctx, path)
	require.NoError(t, err)
	require.Len(t, times, 12)
	for i, ts := range times {
		assert.InDelta(t, float64(i)/60, ts, 0.002, "frame %d", i)
	}
}
