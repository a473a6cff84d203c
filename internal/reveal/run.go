package reveal

import (
	"context"
	"time"
)

// Run is the handle of one reveal run. Cancellation is not a failure: Wait
// simply reports Cancelled and the partial state stays visible.
type Run struct {
	cancel context.CancelFunc
	done   chan struct{}

	// written by the run goroutine before done is closed
	status   Status
	elapsed  time.Duration
	revealed int
	total    int
}

// Cancel is safe to call any number of times, also after the run ended.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed once the run has stopped, whichever way it ended.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run stops and returns how it ended.
func (r *Run) Wait() Status {
	<-r.done
	return r.status
}

// Status reports Running until the run stops, then its final status.
func (r *Run) Status() Status {
	select {
	case <-r.done:
		return r.status
	default:
		return Running
	}
}

// Elapsed is the wall time spent in the run, including pauses. Zero until
// the run has stopped.
func (r *Run) Elapsed() time.Duration {
	select {
	case <-r.done:
		return r.elapsed
	default:
		return 0
	}
}

// Progress returns revealed and total unit counts. Revealed is only final
// once the run has stopped.
func (r *Run) Progress() (revealed, total int) {
	select {
	case <-r.done:
		return r.revealed, r.total
	default:
		return 0, r.total
	}
}
