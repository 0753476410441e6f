// Package background runs units of work after the HTTP response has been
// sent without letting the process exit before they finish.
package background

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Runner schedules fire-and-forget jobs. Each job runs on its own goroutine;
// Wait blocks shutdown until every scheduled job has returned. Jobs for
// different transactions run concurrently and unordered.
type Runner struct {
	log zerolog.Logger
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log}
}

// Schedule hands fn to a goroutine and returns immediately. The caller's
// response path is never delayed. Panics and errors inside fn are logged and
// contained; nothing propagates back to the caller. Returns false when the
// runner is already shutting down, in which case fn is not run.
func (r *Runner) Schedule(name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn().Str("job", name).Msg("runner closed, job dropped")
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.log.Error().Str("job", name).Interface("panic", p).Msg("background job panicked")
			}
		}()
		fn(context.Background())
	}()

	return true
}

// Wait stops accepting new jobs and blocks until in-flight jobs finish or
// ctx expires.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
