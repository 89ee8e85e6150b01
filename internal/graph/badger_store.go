// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/galaktika-app/galaktika/internal/metrics"
	"github.com/galaktika-app/galaktika/internal/models"
)

// galaxyKeyPrefix namespaces galaxy documents in BadgerDB.
const galaxyKeyPrefix = "galaxy:"

// BadgerStore implements Store on BadgerDB. Each user's galaxy lives in one
// value under galaxy:<userID>, written whole on every mutation; Badger's
// transaction gives atomicity, and a per-user mutex gives the read-modify-
// write serialization the Store contract requires.
type BadgerStore struct {
	db *badger.DB

	// userLocks serializes mutations per user. Entries are created on first
	// use and kept for the store's lifetime; user cardinality is bounded by
	// the instance's account count.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewBadgerStore creates a galaxy store on an open BadgerDB handle. The
// caller owns the handle's lifecycle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{
		db:        db,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (s *BadgerStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

func galaxyKey(userID string) []byte {
	return []byte(galaxyKeyPrefix + userID)
}

// emptyGalaxy returns an initialized document for users with no stored
// record yet.
func emptyGalaxy() *models.Galaxy {
	return &models.Galaxy{
		Categories:    []models.Category{},
		Bridges:       []models.Bridge{},
		Favorites:     []models.Favorite{},
		Notifications: []models.Notification{},
	}
}

// LoadGalaxy returns the user's galaxy, or an empty one for new users.
func (s *BadgerStore) LoadGalaxy(ctx context.Context, userID string) (*models.Galaxy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	galaxy := emptyGalaxy()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(galaxyKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get galaxy: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, galaxy)
		})
	})
	if err != nil {
		return nil, err
	}
	return galaxy, nil
}

// Update runs fn under the user's write lock and commits the mutated
// document. fn errors abort with no write.
func (s *BadgerStore) Update(ctx context.Context, userID string, fn func(*models.Galaxy) error) (*models.Galaxy, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	galaxy, err := s.LoadGalaxy(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := fn(galaxy); err != nil {
		return nil, err
	}

	data, err := json.Marshal(galaxy)
	if err != nil {
		return nil, fmt.Errorf("marshal galaxy: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(galaxyKey(userID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("set galaxy: %w", err)
	}

	metrics.StoreMutations.Inc()
	return galaxy, nil
}

// CreateCategory adds a category node, rejecting duplicate names.
func (s *BadgerStore) CreateCategory(ctx context.Context, userID string, cat models.Category) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		if g.FindCategory(cat.Name) != nil {
			return ErrCategoryExists
		}
		if cat.Books == nil {
			cat.Books = []models.Book{}
		}
		g.Categories = append(g.Categories, cat)
		return nil
	})
	return err
}

// DeleteCategory removes the category and any bridges touching it.
func (s *BadgerStore) DeleteCategory(ctx context.Context, userID, name string) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		idx := -1
		for i := range g.Categories {
			if g.Categories[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrCategoryNotFound
		}
		g.Categories = append(g.Categories[:idx], g.Categories[idx+1:]...)

		kept := g.Bridges[:0]
		for _, b := range g.Bridges {
			if !b.Touches(name) {
				kept = append(kept, b)
			}
		}
		g.Bridges = kept
		return nil
	})
	return err
}

// AddBook appends a book to the category, rejecting duplicate titles.
func (s *BadgerStore) AddBook(ctx context.Context, userID, category, title string) (*models.Galaxy, error) {
	return s.Update(ctx, userID, func(g *models.Galaxy) error {
		cat := g.FindCategory(category)
		if cat == nil {
			return ErrCategoryNotFound
		}
		if cat.HasBook(title) {
			return ErrBookExists
		}
		cat.Books = append(cat.Books, models.Book{Title: title})
		return nil
	})
}

// RemoveBook deletes a book from the category by exact title.
func (s *BadgerStore) RemoveBook(ctx context.Context, userID, category, title string) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		cat := g.FindCategory(category)
		if cat == nil {
			return ErrCategoryNotFound
		}
		for i := range cat.Books {
			if cat.Books[i].Title == title {
				cat.Books = append(cat.Books[:i], cat.Books[i+1:]...)
				return nil
			}
		}
		return ErrBookNotFound
	})
	return err
}

// CreateBridge persists a bridge after checking both endpoints exist and
// the unordered pair is not already bridged.
func (s *BadgerStore) CreateBridge(ctx context.Context, userID string, bridge models.Bridge) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		if g.FindCategory(bridge.FromCategory) == nil || g.FindCategory(bridge.ToCategory) == nil {
			return ErrCategoryNotFound
		}
		if g.HasBridge(bridge.FromCategory, bridge.ToCategory) {
			return ErrBridgeExists
		}
		g.Bridges = append(g.Bridges, bridge)
		return nil
	})
	if err == nil {
		metrics.BridgesCreated.Inc()
	}
	return err
}

// SaveFavorite creates a favorite, rejecting duplicates by book title.
func (s *BadgerStore) SaveFavorite(ctx context.Context, userID string, fav models.Favorite) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		if g.FindFavorite(fav.BookTitle) != nil {
			return ErrFavoriteExists
		}
		g.Favorites = append(g.Favorites, fav)
		return nil
	})
	return err
}

// DeleteFavorite removes a favorite by book title.
func (s *BadgerStore) DeleteFavorite(ctx context.Context, userID, bookTitle string) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		for i := range g.Favorites {
			if g.Favorites[i].BookTitle == bookTitle {
				g.Favorites = append(g.Favorites[:i], g.Favorites[i+1:]...)
				return nil
			}
		}
		return ErrFavoriteNotFound
	})
	return err
}

// AppendNotification appends to the user's log.
func (s *BadgerStore) AppendNotification(ctx context.Context, userID string, n models.Notification) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		g.Notifications = append(g.Notifications, n)
		return nil
	})
	return err
}

// MarkAllNotificationsRead flips every entry to read.
func (s *BadgerStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		for i := range g.Notifications {
			g.Notifications[i].IsRead = true
		}
		return nil
	})
	return err
}

// ResetGalaxy clears categories, bridges, favorites and interests. The
// notification log is kept.
func (s *BadgerStore) ResetGalaxy(ctx context.Context, userID string) error {
	_, err := s.Update(ctx, userID, func(g *models.Galaxy) error {
		g.Categories = []models.Category{}
		g.Bridges = []models.Bridge{}
		g.Favorites = []models.Favorite{}
		g.Interests = nil
		return nil
	})
	if err == nil {
		metrics.GalaxyResets.Inc()
	}
	return err
}

// compile-time interface check
var _ Store = (*BadgerStore)(nil)
