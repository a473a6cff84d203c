// Package reveal drives the typing animation: a cancellable timeline that
// appends one unit at a time to a State.
package reveal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/text2video/internal/jamo"
)

type Status int

const (
	Idle Status = iota
	Running
	Completed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Options are the pauses taken before each unit is revealed.
type Options struct {
	UnitDelay     time.Duration
	LineDelay     time.Duration // used instead of UnitDelay before a line break
	TrailingDelay time.Duration // pause after the last unit of a completed run
}

// DefaultOptions matches the pace of the original typing effect.
func DefaultOptions() Options {
	return Options{
		UnitDelay: 25 * time.Millisecond,
		LineDelay: 500 * time.Millisecond,
	}
}

// Scheduler owns one RevealState and at most one active run.
type Scheduler struct {
	startMu sync.Mutex

	mu      sync.RWMutex
	state   State
	version uint64
	current *Run

	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		state:  State{Lines: make([][]jamo.Unit, 1)},
		logger: logger,
	}
}

// Start begins a new run over text. A run already in flight is cancelled and
// waited for before the state is cleared.
func (s *Scheduler) Start(ctx context.Context, text string, opts Options) *Run {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.RLock()
	prev := s.current
	s.mu.RUnlock()
	if prev != nil {
		prev.Cancel()
		prev.Wait()
	}

	units := jamo.Units(text)
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		cancel: cancel,
		done:   make(chan struct{}),
		total:  len(units),
	}

	s.mu.Lock()
	s.state = State{Lines: make([][]jamo.Unit, jamo.LineCount(units))}
	s.version++
	s.current = run
	s.mu.Unlock()

	go s.loop(runCtx, run, units, opts)
	return run
}

// Cancel stops the current run, if any, and waits for it to settle.
func (s *Scheduler) Cancel() {
	s.mu.RLock()
	run := s.current
	s.mu.RUnlock()
	if run != nil {
		run.Cancel()
		run.Wait()
	}
}

// Snapshot returns a copy of the state and its version. The version changes
// on every mutation.
func (s *Scheduler) Snapshot() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), s.version
}

// Version is cheaper than Snapshot when only change detection is needed.
func (s *Scheduler) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Scheduler) loop(ctx context.Context, run *Run, units []jamo.Unit, opts Options) {
	defer close(run.done)
	defer run.cancel()

	start := time.Now()
	status := Completed
	for _, u := range units {
		d := opts.UnitDelay
		if u.IsLineBreak() {
			d = opts.LineDelay
		}
		if !pause(ctx, d) {
			status = Cancelled
			break
		}
		s.apply(u)
		run.revealed++
	}
	if status == Completed && !pause(ctx, opts.TrailingDelay) {
		status = Cancelled
	}

	run.status = status
	run.elapsed = time.Since(start)
	s.logger.Debug("reveal run finished",
		"status", status,
		"revealed", run.revealed,
		"units", run.total,
		"elapsed", run.elapsed)
}

func (s *Scheduler) apply(u jamo.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.IsLineBreak() {
		if s.state.Active < len(s.state.Lines)-1 {
			s.state.Active++
		}
	} else {
		s.state.Lines[s.state.Active] = append(s.state.Lines[s.state.Active], u)
	}
	s.version++
}

// pause waits for d or until ctx is done. It reports false on cancellation.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
