// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"net/http"

	"github.com/galaktika-app/galaktika/internal/logging"
	"github.com/galaktika-app/galaktika/internal/models"
)

// createFavoriteRequest is the body for POST /favorites. Authors and
// image are optional; when absent and the metadata service is
// configured, enrichment fills them in best effort.
type createFavoriteRequest struct {
	BookTitle   string   `json:"book_title" validate:"required,min=1,max=512"`
	BookAuthors []string `json:"book_authors" validate:"omitempty,max=16,dive,min=1,max=256"`
	BookImage   string   `json:"book_image" validate:"omitempty,max=2048"`
}

// ListFavorites returns the user's favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	galaxy, err := h.store.LoadGalaxy(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, galaxy.Favorites)
}

// CreateFavorite stores a favorite. Missing authors/image are filled
// from the metadata service when available; lookup failure degrades to
// a bare favorite rather than failing the request.
func (h *Handler) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req createFavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fav := models.Favorite{
		BookTitle:   req.BookTitle,
		BookAuthors: req.BookAuthors,
		BookImage:   req.BookImage,
	}

	if h.enricher != nil && (len(fav.BookAuthors) == 0 || fav.BookImage == "") {
		if rec, err := h.enricher.Enrich(r.Context(), fav.BookTitle); err != nil {
			logger := logging.Ctx(r.Context())
			logger.Warn().Err(err).Str("title", sanitizeLogValue(fav.BookTitle)).
				Msg("favorite enrichment unavailable")
		} else if rec != nil {
			if len(fav.BookAuthors) == 0 {
				fav.BookAuthors = rec.Authors
			}
			if fav.BookImage == "" {
				fav.BookImage = rec.Image
			}
		}
	}

	if err := h.store.SaveFavorite(r.Context(), userID, fav); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, fav)
}

// DeleteFavorite removes a favorite by book title.
func (h *Handler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	title := pathParam(r, "title")
	if title == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "book title is required", nil)
		return
	}

	if err := h.store.DeleteFavorite(r.Context(), userID, title); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"removed": title})
}
