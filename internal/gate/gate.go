// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package gate implements the confirm-with-countdown safety mechanism
// guarding the irreversible galaxy collapse.
//
// State machine:
//
//	Idle -> Confirming(countdown=5) -> Committing -> Done
//	                 \-> cancel -> Idle (countdown reset, timer stopped)
//
// The destructive commit fires at most once per confirming session; a tick
// that lands after cancellation or after the commit started is a no-op.
// Commit failure returns the gate to Idle as a retryable condition.
package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the gate's lifecycle position.
type State string

const (
	StateIdle       State = "idle"
	StateConfirming State = "confirming"
	StateCommitting State = "committing"
	StateDone       State = "done"
)

// defaultCountdown is the number of one-second ticks before commit.
const defaultCountdown = 5

var (
	// ErrNotIdle indicates Begin was called while a session is in flight.
	ErrNotIdle = errors.New("gate is not idle")

	// ErrNotConfirming indicates Cancel was called outside a countdown.
	ErrNotConfirming = errors.New("gate is not confirming")
)

// CommitFunc performs the destructive action. It runs exactly once per
// session that reaches zero uncancelled.
type CommitFunc func(ctx context.Context) error

// tickerFactory builds a tick source; swapped in tests for a hand-driven
// channel.
type tickerFactory func(d time.Duration) (<-chan time.Time, func())

// Gate is the countdown state machine. Safe for concurrent use.
type Gate struct {
	commit   CommitFunc
	logger   zerolog.Logger
	interval time.Duration
	start    int
	newTick  tickerFactory

	mu        sync.Mutex
	state     State
	countdown int
	stopTick  func()
	done      chan struct{}

	// result receives the commit outcome of the current session. Replaced
	// on every Begin so stale sessions cannot leak results forward.
	result chan error
}

// Option configures a Gate.
type Option func(*Gate)

// WithInterval overrides the one-second tick interval.
func WithInterval(d time.Duration) Option {
	return func(g *Gate) { g.interval = d }
}

// WithCountdown overrides the initial countdown value.
func WithCountdown(n int) Option {
	return func(g *Gate) { g.start = n }
}

// withTickerFactory injects a test tick source.
func withTickerFactory(f tickerFactory) Option {
	return func(g *Gate) { g.newTick = f }
}

// New creates an idle gate around the destructive commit call.
func New(commit CommitFunc, logger zerolog.Logger, opts ...Option) *Gate {
	g := &Gate{
		commit:    commit,
		logger:    logger.With().Str("component", "gate").Logger(),
		interval:  time.Second,
		start:     defaultCountdown,
		state:     StateIdle,
		countdown: defaultCountdown,
		newTick: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.countdown = g.start
	return g
}

// State returns the current lifecycle position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Countdown returns the remaining tick count.
func (g *Gate) Countdown() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.countdown
}

// Result exposes the current session's commit outcome channel. It yields
// exactly one value once the session reaches Committing.
func (g *Gate) Result() <-chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

// Begin starts a confirming session and its countdown timer. Only valid
// from Idle.
func (g *Gate) Begin(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return ErrNotIdle
	}
	g.state = StateConfirming
	g.countdown = g.start
	g.result = make(chan error, 1)
	g.done = make(chan struct{})

	ticks, stop := g.newTick(g.interval)
	g.stopTick = stop
	done := g.done
	g.mu.Unlock()

	go g.run(ctx, ticks, done)

	g.logger.Info().Int("countdown", g.start).Msg("collapse countdown started")
	return nil
}

// Cancel aborts a confirming session, resetting the countdown and stopping
// the timer. No commit can fire after Cancel returns. Cancelling outside
// Confirming (including during commit) is rejected.
func (g *Gate) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateConfirming {
		return ErrNotConfirming
	}
	g.toIdleLocked()
	g.logger.Info().Msg("collapse cancelled")
	return nil
}

// toIdleLocked resets to Idle, releases the timer and wakes the session
// goroutine. Caller holds g.mu.
func (g *Gate) toIdleLocked() {
	g.state = StateIdle
	g.countdown = g.start
	if g.stopTick != nil {
		g.stopTick()
		g.stopTick = nil
	}
	if g.done != nil {
		close(g.done)
		g.done = nil
	}
}

// run consumes ticks until the session leaves Confirming. The context
// cancels the session like an explicit Cancel; done fires on Cancel so the
// goroutine never outlives its session.
func (g *Gate) run(ctx context.Context, ticks <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			g.mu.Lock()
			if g.state == StateConfirming {
				g.toIdleLocked()
			}
			g.mu.Unlock()
			return
		case <-done:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if finished := g.tick(ctx); finished {
				return
			}
		}
	}
}

// tick decrements the countdown and triggers the commit at zero. Returns
// true when the session left Confirming. A tick delivered after cancel or
// after the commit started is ignored: the state check under the mutex is
// the idempotent guard against double-submit.
func (g *Gate) tick(ctx context.Context) bool {
	g.mu.Lock()
	if g.state != StateConfirming {
		g.mu.Unlock()
		return true
	}
	g.countdown--
	if g.countdown > 0 {
		g.mu.Unlock()
		return false
	}

	g.state = StateCommitting
	if g.stopTick != nil {
		g.stopTick()
		g.stopTick = nil
	}
	result := g.result
	g.mu.Unlock()

	err := g.commit(ctx)

	g.mu.Lock()
	if err != nil {
		// Retryable: back to Idle, surfaced to the caller via Result.
		g.toIdleLocked()
		g.logger.Error().Err(err).Msg("collapse commit failed")
	} else {
		g.state = StateDone
		g.logger.Info().Msg("collapse committed")
	}
	g.mu.Unlock()

	result <- err
	return true
}
