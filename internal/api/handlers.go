// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/galaktika-app/galaktika/internal/events"
	"github.com/galaktika-app/galaktika/internal/gate"
	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/logging"
	"github.com/galaktika-app/galaktika/internal/metadata"
	"github.com/galaktika-app/galaktika/internal/notify"
)

// BookEventPublisher publishes book-added events for asynchronous
// post-commit effects. Satisfied by events.Pipeline.
type BookEventPublisher interface {
	PublishBookAdded(ctx context.Context, e events.BookAddedEvent) error
	Running() chan struct{}
}

// Enricher looks up book metadata for favorite enrichment. Satisfied by
// metadata.Client. Lookups are best effort; failures degrade to bare
// favorites.
type Enricher interface {
	Enrich(ctx context.Context, title string) (*metadata.BookRecord, error)
}

// GateOptions configures per-user collapse gates.
type GateOptions struct {
	Countdown int
	Interval  time.Duration
}

// Handler processes HTTP requests against the per-user galaxy store.
type Handler struct {
	store     graph.Store
	publisher BookEventPublisher
	enricher  Enricher // nil disables favorite enrichment
	gateOpts  GateOptions
	startTime time.Time

	mu       sync.Mutex
	sessions map[string]*notify.Session
	gates    map[string]*gate.Gate
}

// NewHandler creates the API handler. enricher may be nil when the
// metadata service is not configured.
func NewHandler(store graph.Store, publisher BookEventPublisher, enricher Enricher, gateOpts GateOptions) *Handler {
	if gateOpts.Countdown <= 0 {
		gateOpts.Countdown = 5
	}
	if gateOpts.Interval <= 0 {
		gateOpts.Interval = time.Second
	}
	return &Handler{
		store:     store,
		publisher: publisher,
		enricher:  enricher,
		gateOpts:  gateOpts,
		startTime: time.Now(),
		sessions:  make(map[string]*notify.Session),
		gates:     make(map[string]*gate.Gate),
	}
}

// session returns the user's notification session, creating it on first
// use.
func (h *Handler) session(userID string) *notify.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[userID]
	if !ok {
		s = notify.NewSession(userID, h.store, logging.Logger())
		h.sessions[userID] = s
	}
	return s
}

// userGate returns the user's collapse gate. A gate that finished its
// session (Done) is replaced so the user can collapse again later.
func (h *Handler) userGate(userID string) *gate.Gate {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.gates[userID]
	if ok && g.State() != gate.StateDone {
		return g
	}
	// The store increments the reset counter on success.
	commit := func(ctx context.Context) error {
		return h.store.ResetGalaxy(ctx, userID)
	}
	g = gate.New(commit, logging.Logger(),
		gate.WithCountdown(h.gateOpts.Countdown),
		gate.WithInterval(h.gateOpts.Interval))
	h.gates[userID] = g
	return g
}

// HealthLive reports process liveness. Always 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports readiness: the store answers reads and the event
// pipeline's router is running.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	storeReady := false
	if _, err := h.store.LoadGalaxy(r.Context(), "health-probe"); err == nil {
		storeReady = true
	}

	pipelineReady := h.publisher == nil
	if h.publisher != nil {
		select {
		case <-h.publisher.Running():
			pipelineReady = true
		default:
		}
	}

	ready := storeReady && pipelineReady
	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	respondData(w, status, map[string]interface{}{
		"status":   state,
		"store":    storeReady,
		"pipeline": pipelineReady,
	})
}
