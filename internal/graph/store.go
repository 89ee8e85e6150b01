// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package graph

import (
	"context"
	"errors"

	"github.com/galaktika-app/galaktika/internal/models"
)

// Domain errors. NotFound-class errors mean the referenced entity is absent
// and the operation applied no mutation; conflict-class errors mean the
// mutation would violate a graph invariant and was rejected, leaving the
// graph unchanged.
var (
	// ErrCategoryNotFound indicates the referenced category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrBookNotFound indicates the referenced book does not exist in the
	// category.
	ErrBookNotFound = errors.New("book not found")

	// ErrFavoriteNotFound indicates no favorite exists for the book title.
	ErrFavoriteNotFound = errors.New("favorite not found")

	// ErrCategoryExists indicates a category with the same name already
	// exists in the user's galaxy.
	ErrCategoryExists = errors.New("category already exists")

	// ErrBookExists indicates the category already holds a book with the
	// same title.
	ErrBookExists = errors.New("book already exists in category")

	// ErrBridgeExists indicates the unordered category pair is already
	// bridged. At most one active bridge per pair.
	ErrBridgeExists = errors.New("bridge already exists for category pair")

	// ErrFavoriteExists indicates the book is already favorited.
	ErrFavoriteExists = errors.New("book already favorited")
)

// Store is the persistence contract for per-user galaxy documents. All
// operations are keyed by an opaque user identifier; implementations must
// serialize mutations per user and apply each mutation atomically.
type Store interface {
	// LoadGalaxy returns the user's galaxy document. Users without a stored
	// document get an empty, initialized galaxy (first visit bootstraps the
	// record on the next write).
	LoadGalaxy(ctx context.Context, userID string) (*models.Galaxy, error)

	// Update runs fn against the user's galaxy inside the per-user write
	// lock and persists the result when fn returns nil. fn errors abort the
	// write and propagate unchanged, so no partial mutation is observable.
	// The returned galaxy is the committed post-update document.
	Update(ctx context.Context, userID string, fn func(*models.Galaxy) error) (*models.Galaxy, error)

	// CreateCategory adds a new category node.
	CreateCategory(ctx context.Context, userID string, cat models.Category) error

	// DeleteCategory removes a category and every bridge referencing it.
	DeleteCategory(ctx context.Context, userID, name string) error

	// AddBook appends a book to a category and returns the committed
	// galaxy so callers can derive counts without a second read.
	AddBook(ctx context.Context, userID, category, title string) (*models.Galaxy, error)

	// RemoveBook deletes a book from a category.
	RemoveBook(ctx context.Context, userID, category, title string) error

	// CreateBridge persists a bridge, enforcing the one-bridge-per-pair
	// invariant and that both endpoints exist.
	CreateBridge(ctx context.Context, userID string, bridge models.Bridge) error

	// SaveFavorite creates a favorite for the user.
	SaveFavorite(ctx context.Context, userID string, fav models.Favorite) error

	// DeleteFavorite removes a favorite by book title.
	DeleteFavorite(ctx context.Context, userID, bookTitle string) error

	// AppendNotification appends an entry to the user's notification log.
	AppendNotification(ctx context.Context, userID string, n models.Notification) error

	// MarkAllNotificationsRead flips every log entry to read.
	MarkAllNotificationsRead(ctx context.Context, userID string) error

	// ResetGalaxy clears the user's categories, bridges, favorites and
	// interests. The notification log survives the collapse.
	ResetGalaxy(ctx context.Context, userID string) error
}
