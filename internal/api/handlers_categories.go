// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/galaktika-app/galaktika/internal/events"
	"github.com/galaktika-app/galaktika/internal/logging"
	"github.com/galaktika-app/galaktika/internal/metrics"
	"github.com/galaktika-app/galaktika/internal/models"
)

// createCategoryRequest is the body for POST /galaxy/categories.
type createCategoryRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=120"`
	Image string  `json:"image" validate:"omitempty,max=2048"`
	X     float64 `json:"x" validate:"gte=0,lte=1"`
	Y     float64 `json:"y" validate:"gte=0,lte=1"`
}

// addBookRequest is the body for POST /galaxy/categories/{name}/books.
// Tags name the other categories this book also belongs to, feeding the
// bridge candidate evaluation.
type addBookRequest struct {
	Title string   `json:"title" validate:"required,min=1,max=512"`
	Tags  []string `json:"tags" validate:"omitempty,max=32,dive,min=1,max=120"`
}

// CreateCategory adds a category node to the user's galaxy.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req createCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cat := models.Category{
		Name:  req.Name,
		Image: req.Image,
		X:     req.X,
		Y:     req.Y,
		Books: []models.Book{},
	}
	if err := h.store.CreateCategory(r.Context(), userID, cat); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, cat)
}

// DeleteCategory removes a category and every bridge touching it.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	name := pathParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "category name is required", nil)
		return
	}

	if err := h.store.DeleteCategory(r.Context(), userID, name); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": name})
}

// AddBook commits a book to a category, then publishes the book.added
// event that drives bridge proposal, rank recomputation and achievement
// notification. The response carries the committed counts; the derived
// effects land asynchronously.
func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	category := pathParam(r, "name")
	if category == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "category name is required", nil)
		return
	}

	var req addBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	galaxy, err := h.store.AddBook(r.Context(), userID, category, req.Title)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	metrics.BooksAdded.Inc()

	if h.publisher != nil {
		event := events.NewBookAddedEvent(userID, category, req.Title, req.Tags)
		if err := h.publisher.PublishBookAdded(r.Context(), event); err != nil {
			// The book is committed; derived effects are lost for this
			// add but the next add re-evaluates from committed state.
			logger := logging.Ctx(r.Context())
			logger.Error().Err(err).Msg("failed to publish book-added event")
		}
	}

	total := galaxy.TotalBooks()
	respondData(w, http.StatusCreated, map[string]interface{}{
		"category":    category,
		"title":       req.Title,
		"total_books": total,
	})
}

// RemoveBook deletes a book from a category.
func (h *Handler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	category := pathParam(r, "name")
	title := pathParam(r, "title")
	if category == "" || title == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "category and title are required", nil)
		return
	}

	if err := h.store.RemoveBook(r.Context(), userID, category, title); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"removed":  title,
	})
}

// pathParam returns a URL-decoded chi route parameter.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
