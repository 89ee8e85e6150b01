// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/galaktika-app/galaktika/internal/gate"
	"github.com/galaktika-app/galaktika/internal/models"
	"github.com/galaktika-app/galaktika/internal/rank"
)

// GetGalaxy returns the user's full graph document plus the computed
// rank tier. The tier is derived on every read and never persisted.
func (h *Handler) GetGalaxy(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	galaxy, err := h.store.LoadGalaxy(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"galaxy": galaxy,
		"rank":   rank.Rank(galaxy.TotalBooks()),
	})
}

// GetRank returns the user's current tier, derived from the committed
// total book count.
func (h *Handler) GetRank(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	galaxy, err := h.store.LoadGalaxy(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	total := galaxy.TotalBooks()
	respondData(w, http.StatusOK, map[string]interface{}{
		"total_books": total,
		"rank":        rank.Rank(total),
	})
}

// CollapseBegin starts the destructive collapse countdown for the user.
// The commit clears categories, bridges, favorites and interests after
// the countdown expires uncancelled; the notification log survives.
func (h *Handler) CollapseBegin(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	g := h.userGate(userID)

	// The countdown must outlive this request.
	if err := g.Begin(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, gate.ErrNotIdle) {
			respondError(w, http.StatusConflict, models.ErrCodeConflict, "collapse already in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "could not start collapse", err)
		return
	}
	respondData(w, http.StatusAccepted, collapseStatus(g))
}

// CollapseCancel aborts a pending collapse countdown.
func (h *Handler) CollapseCancel(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	g := h.userGate(userID)

	if err := g.Cancel(); err != nil {
		if errors.Is(err, gate.ErrNotConfirming) {
			respondError(w, http.StatusConflict, models.ErrCodeConflict, "no cancellable collapse in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "could not cancel collapse", err)
		return
	}
	respondData(w, http.StatusOK, collapseStatus(g))
}

// CollapseStatus reports the gate state and remaining countdown.
func (h *Handler) CollapseStatus(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	h.mu.Lock()
	g, ok := h.gates[userID]
	h.mu.Unlock()
	if !ok {
		respondData(w, http.StatusOK, map[string]interface{}{
			"state":     string(gate.StateIdle),
			"countdown": h.gateOpts.Countdown,
		})
		return
	}
	respondData(w, http.StatusOK, collapseStatus(g))
}

func collapseStatus(g *gate.Gate) map[string]interface{} {
	return map[string]interface{}{
		"state":     string(g.State()),
		"countdown": g.Countdown(),
	}
}
