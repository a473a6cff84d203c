package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/text2video/internal/analyzer"
	"github.com/ivlev/text2video/internal/capture"
	"github.com/ivlev/text2video/internal/compositor"
	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/framestore"
	"github.com/ivlev/text2video/internal/renderer"
	"github.com/ivlev/text2video/internal/reveal"
	"github.com/ivlev/text2video/internal/source"
	"github.com/ivlev/text2video/internal/system"
	"github.com/ivlev/text2video/internal/video"
)

// Project runs one reveal session end to end: capture the animation into
// the frame store, then encode the stored frames into a video.
type Project struct {
	Config *config.Config
	Store  *framestore.Store
	Logger *slog.Logger

	// NewWriter overrides the ffmpeg writer.
	NewWriter video.WriterFactory
	// Progress is passed to the encoder.
	Progress func(done, total int)
	// Report receives the performance report when Config.ShowStats is set.
	Report io.Writer
}

// Result describes a finished session.
type Result struct {
	VideoPath    string
	Frames       int
	Renders      int
	RevealStatus reveal.Status
	CaptureTime  time.Duration
	EncodeTime   time.Duration
	TotalTime    time.Duration
	// Video is what ffprobe read back from VideoPath, nil when it could not
	// be checked.
	Video *system.VideoInfo
}

// NewProject opens the frame store configured by cfg under a fresh session.
func NewProject(cfg *config.Config, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.FramesDir
	if dir == "" {
		var err error
		if dir, err = framestore.DefaultDir(); err != nil {
			return nil, err
		}
	}
	store, err := framestore.New(dir, framestore.Options{MinFreeBytes: cfg.MinFreeBytes, Logger: logger})
	if err != nil {
		return nil, err
	}
	return &Project{Config: cfg, Store: store, Logger: logger}, nil
}

// Run captures a fresh session and encodes it. The returned Result is
// non-nil once capture has started, also on error.
func (p *Project) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p.NewWriter == nil && !system.HasFFmpeg() {
		return nil, errors.New("ffmpeg not found in PATH")
	}

	bg, err := source.LoadBackground(cfg.BackgroundOptions())
	if err != nil {
		return nil, err
	}
	p.checkLegibility(bg)

	if err := p.Store.Reset(); err != nil {
		return nil, err
	}

	res := &Result{}
	captureStart := time.Now()
	if err := p.capture(ctx, res); err != nil {
		return res, err
	}
	res.CaptureTime = time.Since(captureStart)
	p.logger().Info("capture finished", "frames", res.Frames, "renders", res.Renders,
		"status", res.RevealStatus, "elapsed", res.CaptureTime)

	encodeStart := time.Now()
	path, err := p.encode(ctx, bg)
	res.VideoPath = path
	res.EncodeTime = time.Since(encodeStart)
	res.TotalTime = time.Since(start)
	if err != nil {
		return res, err
	}
	res.Video = p.verify(ctx, res)

	if cfg.ShowStats {
		p.report(res)
	}
	return res, nil
}

// capture runs the reveal and the recorder side by side. The recorder keeps
// going for Config.Hold after the reveal completes.
func (p *Project) capture(ctx context.Context, res *Result) error {
	cfg := p.Config
	tr, err := renderer.New(cfg.RendererOptions())
	if err != nil {
		return err
	}
	defer tr.Close()

	sched := reveal.NewScheduler(p.logger())
	rec := capture.NewRecorder(sched, tr, p.Store, cfg.FPS, p.logger())

	g, gctx := errgroup.WithContext(ctx)
	recordCtx, stopRecording := context.WithCancel(gctx)
	defer stopRecording()

	run := sched.Start(gctx, cfg.Text, cfg.RevealOptions())
	g.Go(func() error {
		defer stopRecording()
		res.RevealStatus = run.Wait()
		if res.RevealStatus != reveal.Completed {
			return nil
		}
		hold := time.NewTimer(cfg.Hold)
		defer hold.Stop()
		select {
		case <-gctx.Done():
		case <-hold.C:
		}
		return nil
	})
	g.Go(func() error {
		n, err := rec.Record(recordCtx)
		res.Frames = n
		res.Renders = rec.Renders()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Encode composites and encodes whatever the store currently holds. It is
// also used on its own to finish a session whose encode step failed.
func (p *Project) Encode(ctx context.Context) (string, error) {
	bg, err := source.LoadBackground(p.Config.BackgroundOptions())
	if err != nil {
		return "", err
	}
	return p.encode(ctx, bg)
}

func (p *Project) encode(ctx context.Context, bg image.Image) (string, error) {
	cfg := p.Config
	comp, err := compositor.New(p.Store, bg, compositor.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   compositor.PixelFormat(cfg.PixelFormat),
		PoolSize: cfg.PoolSize,
	})
	if err != nil {
		return "", err
	}

	profile := cfg.Profile()
	if profile.Codec == "auto" {
		profile.Codec = system.GetBestH264Encoder()
	}
	enc := video.NewEncoder(profile, filepath.Join(p.Store.Dir(), cfg.OutputName))
	enc.Logger = p.logger()
	enc.Progress = p.Progress
	if p.NewWriter != nil {
		enc.NewWriter = p.NewWriter
	}

	path, err := enc.Encode(ctx, p.Store, comp)
	hits, misses := comp.Pool().Stats()
	p.logger().Debug("buffer pool", "hits", hits, "misses", misses)
	return path, err
}

// verify reads the finished video back with ffprobe and warns when it does
// not hold exactly the captured frames.
func (p *Project) verify(ctx context.Context, res *Result) *system.VideoInfo {
	if !system.HasFFprobe() {
		return nil
	}
	if _, err := os.Stat(res.VideoPath); err != nil {
		p.logger().Debug("video not checked", "path", res.VideoPath, "error", err)
		return nil
	}
	info, err := system.ProbeVideo(ctx, res.VideoPath)
	if err != nil {
		p.logger().Warn("video check failed", "path", res.VideoPath, "error", err)
		return nil
	}
	if info.Frames != res.Frames {
		p.logger().Warn("frame count mismatch", "path", res.VideoPath,
			"captured", res.Frames, "encoded", info.Frames)
	}
	if info.Width != p.Config.Width || info.Height != p.Config.Height {
		p.logger().Warn("video size mismatch", "path", res.VideoPath,
			"want", fmt.Sprintf("%dx%d", p.Config.Width, p.Config.Height),
			"got", fmt.Sprintf("%dx%d", info.Width, info.Height))
	}
	return &info
}

// checkLegibility warns when the band the active line settles in is hard to
// read against bg.
func (p *Project) checkLegibility(bg image.Image) {
	opts := p.Config.RendererOptions()
	half := opts.FontSize * opts.LineSpacing / float64(p.Config.Height)
	checker := analyzer.NewChecker()
	report := checker.Check(bg, 0.5-half, 0.5+half, opts.Color)
	for _, w := range checker.Warnings(report) {
		p.logger().Warn("background legibility", "problem", w, "background", p.Config.Background)
	}
}

func (p *Project) report(res *Result) {
	w := p.Report
	if w == nil {
		w = os.Stdout
	}
	videoSeconds := p.Config.Profile().Seconds(p.Config.Profile().PTS(res.Frames))
	fps := 0.0
	if res.EncodeTime > 0 {
		fps = float64(res.Frames) / res.EncodeTime.Seconds()
	}

	fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Capture: %.2fs (%d frames, %d renders)\n"+
			"Encoding: %.2fs\n"+
			"Video Length: %.2fs\n"+
			"Encode FPS: %.2f\n",
		p.Config.BuildVersion, res.TotalTime.Seconds(), res.CaptureTime.Seconds(), res.Frames, res.Renders,
		res.EncodeTime.Seconds(), videoSeconds, fps,
	)
	if v := res.Video; v != nil {
		fmt.Fprintf(w, "Video: %s %dx%d @ %.2f FPS, %d frames\n", v.Codec, v.Width, v.Height, v.FPS, v.Frames)
	}
	if st, err := system.ReadHostStats(); err == nil {
		fmt.Fprintf(w,
			"CPUs: %d | Memory: %s / %s (%.1f%%) | Heap: %s | Goroutines: %d\n",
			st.LogicalCPUs, system.FormatBytes(st.MemUsed), system.FormatBytes(st.MemTotal), st.MemPercent,
			system.FormatBytes(st.HeapAlloc), st.NumGoroutines,
		)
	} else {
		p.logger().Warn("host stats unavailable", "error", err)
	}
	fmt.Fprint(w, "----------------------------\n")
}

func (p *Project) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
