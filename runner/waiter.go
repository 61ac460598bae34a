package runner

import (
	"context"
	"time"
)

type waiter struct {
	timeLimit time.Duration
}

// Wait waits until done is closed, the time limit is reached or the context
// is canceled. It returns the reason to interrupt the script or nil if the
// call returned in time.
func (w *waiter) Wait(ctx context.Context, done <-chan struct{}) error {
	var timeout <-chan time.Time
	if w.timeLimit > 0 {
		timer := time.NewTimer(w.timeLimit)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
		return nil
	case <-timeout:
		return ErrTimeLimitExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// guard runs f while the waiter watches it, interrupt is called when f runs
// over its budget. guard returns only after the watcher has exited so that no
// interrupt is delivered after it returns.
func (w *waiter) guard(ctx context.Context, interrupt func(error), f func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		if err := w.Wait(ctx, done); err != nil {
			interrupt(err)
		}
	}()
	defer func() {
		close(done)
		<-exited
	}()
	f()
}
