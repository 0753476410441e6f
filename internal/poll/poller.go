// Package poll implements the client-side wait for an AI suggestion to
// appear on a freshly created transaction. It is a small state machine with
// two timers (tick interval and overall deadline) and cooperative
// cancellation, independent of any UI framework.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State of a poller.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateFound     State = "found"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Suggestion is what a successful poll observed on the transaction.
type Suggestion struct {
	CategoryName string
	Confidence   float64
}

// Fetcher retrieves the transaction's current suggestion state. It returns
// nil without error while no suggestion exists yet.
type Fetcher interface {
	FetchSuggestion(ctx context.Context, transactionID uuid.UUID) (*Suggestion, error)
}

// Options tune the poll loop. Zero values take the defaults.
type Options struct {
	Interval time.Duration // default 2s
	Timeout  time.Duration // default 30s
}

// Poller waits for a suggestion on one transaction. Exactly one terminal
// callback fires: OnFound, OnTimeout, or neither when cancelled. Only one
// fetch is ever in flight; a tick that arrives while a fetch is still
// running is coalesced, never overlapped.
type Poller struct {
	fetcher  Fetcher
	log      zerolog.Logger
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

func New(fetcher Fetcher, log zerolog.Logger, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Poller{
		fetcher:  fetcher,
		log:      log,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		state:    StateIdle,
	}
}

// ErrAlreadyStarted is returned by Start on any poller that has left Idle.
var ErrAlreadyStarted = errors.New("poller already started")

// Start begins polling immediately. onFound and onTimeout are mutually
// exclusive; neither fires after Stop returns.
func (p *Poller) Start(ctx context.Context, transactionID uuid.UUID, onFound func(Suggestion), onTimeout func()) error {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	p.state = StatePolling
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.loop(ctx, transactionID, onFound, onTimeout)
	return nil
}

// Stop cancels polling: the in-flight fetch is aborted and no callback fires
// afterwards. Stop blocks until the poll loop has exited and is safe to call
// in any state.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == StateIdle {
		p.mu.Unlock()
		return
	}
	if p.state == StatePolling {
		p.state = StateCancelled
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// State returns the poller's current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// transition moves Polling to a terminal state. It reports false when the
// poller already left Polling, in which case the caller must not invoke its
// callback.
func (p *Poller) transition(to State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePolling {
		return false
	}
	p.state = to
	return true
}

func (p *Poller) loop(ctx context.Context, transactionID uuid.UUID, onFound func(Suggestion), onTimeout func()) {
	defer close(p.done)

	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First fetch fires immediately, then on each tick. Fetching inline in
	// this goroutine is what guarantees single flight: a slow fetch simply
	// delays the next tick's work.
	for {
		if found := p.fetchOnce(ctx, transactionID, onFound); found {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			if p.transition(StateTimedOut) {
				p.log.Info().Stringer("transaction_id", transactionID).Msg("suggestion poll timed out")
				onTimeout()
			}
			return
		case <-ticker.C:
		}
	}
}

// fetchOnce performs a single fetch and fires onFound when a suggestion is
// present. It reports true when the loop should stop.
func (p *Poller) fetchOnce(ctx context.Context, transactionID uuid.UUID, onFound func(Suggestion)) bool {
	// Latch check before the fetch: Stop may have won the race.
	if p.State() != StatePolling {
		return true
	}

	s, err := p.fetcher.FetchSuggestion(ctx, transactionID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return true
		}
		// Transient fetch errors are tolerated until the deadline.
		p.log.Warn().Err(err).Stringer("transaction_id", transactionID).Msg("suggestion poll fetch failed")
		return false
	}
	if s == nil {
		return false
	}

	// Latch check after the fetch, atomically with the state change.
	if p.transition(StateFound) {
		onFound(*s)
	}
	return true
}
