// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package notify decides when achievement notifications fire and keeps a
// per-user notification session hydrated from the store.
//
// The achievement decision is a read-last-then-append sequence; callers run
// it inside the store's per-user Update so two concurrent book adds for the
// same user cannot both fire for the same tier.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/galaktika-app/galaktika/internal/metrics"
	"github.com/galaktika-app/galaktika/internal/models"
	"github.com/galaktika-app/galaktika/internal/rank"
)

// MaybeNotify compares the rank derived from the current total book count
// against the most recent achievement on record and returns a new
// achievement notification when the user has been promoted, or nil when the
// last recorded achievement already matches the current tier.
//
// Guarantees at most one achievement notification per distinct rank value:
// re-entering a tier after deletions does not re-fire as long as that tier
// is still the last one recorded. Zero books never notifies.
func MaybeNotify(currentTotalBooks int, log []models.Notification) *models.Notification {
	if currentTotalBooks <= 0 {
		return nil
	}

	current := rank.Rank(currentTotalBooks)

	if last := lastAchievement(log); last != nil && last.Categories[0] == current.Name {
		return nil
	}

	n := &models.Notification{
		ID:         uuid.New().String(),
		Type:       models.NotificationAchievement,
		Title:      "Rank up!",
		Message:    fmt.Sprintf("You reached the rank of %s. Keep reading, %s.", current.Name, current.Label),
		Categories: [2]string{current.Name, current.Label},
		CreatedAt:  time.Now().UTC(),
	}
	metrics.AchievementsEmitted.WithLabelValues(current.Name).Inc()
	return n
}

// lastAchievement finds the most recent achievement entry. The log is
// stable-sorted by CreatedAt ascending on a copy, so entries with equal
// timestamps keep their append order and the result is deterministic.
func lastAchievement(log []models.Notification) *models.Notification {
	sorted := make([]models.Notification, len(log))
	copy(sorted, log)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return models.LastAchievement(sorted)
}

// NewSmartLink builds the notification announcing a fresh bridge between
// two categories, carrying the recommended book when the metadata lookup
// produced one.
func NewSmartLink(categoryA, categoryB, bookTitle, bookImage string) models.Notification {
	message := fmt.Sprintf("Your %s and %s galaxies just got connected.", categoryA, categoryB)
	if bookTitle != "" {
		message = fmt.Sprintf("%s Try %q next.", message, bookTitle)
	}
	return models.Notification{
		ID:         uuid.New().String(),
		Type:       models.NotificationSmartLink,
		Title:      "New smart link",
		Message:    message,
		BookTitle:  bookTitle,
		BookImage:  bookImage,
		Categories: [2]string{categoryA, categoryB},
		CreatedAt:  time.Now().UTC(),
	}
}
