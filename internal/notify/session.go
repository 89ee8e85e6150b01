// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/models"
)

// Session is an explicit per-user view of the notification log, passed by
// reference instead of ambient global state. The contract is hydrate from
// the store, mutate locally, then best-effort sync: local reads stay
// consistent for the interaction even when a sync write fails.
type Session struct {
	userID string
	store  graph.Store
	logger zerolog.Logger

	mu      sync.RWMutex
	entries []models.Notification
}

// NewSession creates an unhydrated session for one user.
func NewSession(userID string, store graph.Store, logger zerolog.Logger) *Session {
	return &Session{
		userID: userID,
		store:  store,
		logger: logger.With().Str("component", "notify").Str("user_id", userID).Logger(),
	}
}

// Hydrate loads the notification log from the store, replacing any local
// state.
func (s *Session) Hydrate(ctx context.Context) error {
	galaxy, err := s.store.LoadGalaxy(ctx, s.userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = galaxy.Notifications
	s.mu.Unlock()
	return nil
}

// List returns a copy of the hydrated entries, newest first.
func (s *Session) List() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.entries))
	for i, n := range s.entries {
		out[len(s.entries)-1-i] = n
	}
	return out
}

// UnreadCount returns the number of unread entries in the local view.
func (s *Session) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.entries {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkAllRead flips every local entry to read and syncs the transition.
func (s *Session) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	for i := range s.entries {
		s.entries[i].IsRead = true
	}
	s.mu.Unlock()

	if err := s.store.MarkAllNotificationsRead(ctx, s.userID); err != nil {
		s.logger.Warn().Err(err).Msg("mark-all-read sync failed")
	}
}
