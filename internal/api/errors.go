// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"errors"
	"net/http"

	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/models"
)

// storeErrorStatus maps graph store sentinel errors onto HTTP status and
// stable API error codes. Unknown errors map to 500/INTERNAL_ERROR.
func storeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, graph.ErrCategoryNotFound),
		errors.Is(err, graph.ErrBookNotFound),
		errors.Is(err, graph.ErrFavoriteNotFound):
		return http.StatusNotFound, models.ErrCodeNotFound
	case errors.Is(err, graph.ErrCategoryExists),
		errors.Is(err, graph.ErrBookExists),
		errors.Is(err, graph.ErrBridgeExists),
		errors.Is(err, graph.ErrFavoriteExists):
		return http.StatusConflict, models.ErrCodeConflict
	default:
		return http.StatusInternalServerError, models.ErrCodeInternal
	}
}
