// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"net/http"

	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/metrics"
	"github.com/galaktika-app/galaktika/internal/models"
	"github.com/galaktika-app/galaktika/internal/notify"
)

// createBridgeRequest is the body for POST /galaxy/bridges. The pair is
// unordered: a bridge between A and B blocks a later B-A bridge.
type createBridgeRequest struct {
	FromCategory    string `json:"from_category" validate:"required,min=1,max=120"`
	ToCategory      string `json:"to_category" validate:"required,min=1,max=120"`
	RecommendedBook string `json:"recommended_book" validate:"omitempty,max=512"`
	BookImage       string `json:"book_image" validate:"omitempty,max=2048"`
	BookLink        string `json:"book_link" validate:"omitempty,max=2048"`
}

// CreateBridge persists a user-accepted bridge and appends the
// smart-link notification. Both writes land in one atomic update.
func (h *Handler) CreateBridge(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req createBridgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FromCategory == req.ToCategory {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "bridge endpoints must differ", nil)
		return
	}

	bridge := models.Bridge{
		FromCategory:    req.FromCategory,
		ToCategory:      req.ToCategory,
		RecommendedBook: req.RecommendedBook,
		BookImage:       req.BookImage,
		BookLink:        req.BookLink,
	}

	_, err := h.store.Update(r.Context(), userID, func(g *models.Galaxy) error {
		if g.FindCategory(bridge.FromCategory) == nil || g.FindCategory(bridge.ToCategory) == nil {
			return graph.ErrCategoryNotFound
		}
		if g.HasBridge(bridge.FromCategory, bridge.ToCategory) {
			return graph.ErrBridgeExists
		}
		g.Bridges = append(g.Bridges, bridge)
		g.Notifications = append(g.Notifications, notify.NewSmartLink(
			bridge.FromCategory, bridge.ToCategory, bridge.RecommendedBook, bridge.BookImage))
		return nil
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	metrics.BridgesCreated.Inc()
	respondData(w, http.StatusCreated, bridge)
}
