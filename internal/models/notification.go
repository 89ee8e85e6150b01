// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package models

import (
	"time"
)

// NotificationType discriminates the notification payload carried in the
// Categories tuple.
type NotificationType string

const (
	// NotificationAchievement announces a rank promotion. Categories holds
	// [rank name, rank label].
	NotificationAchievement NotificationType = "achievement"

	// NotificationSmartLink announces a new bridge between two categories.
	// Categories holds [category A, category B].
	NotificationSmartLink NotificationType = "smart-link"
)

// Notification is an append-only entry in a user's notification log.
// Entries are never deleted individually; the only mutation after creation
// is the bulk read transition.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	BookTitle string           `json:"book_title,omitempty"`
	BookImage string           `json:"book_image,omitempty"`

	// Categories is a fixed 2-slot tuple whose meaning depends on Type.
	Categories [2]string `json:"categories"`

	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// LastAchievement returns the most recent achievement notification in the
// log, or nil when none exists. The log is ordered by CreatedAt ascending;
// ties keep insertion order (append order), so the last matching entry is
// the most recent one.
func LastAchievement(log []Notification) *Notification {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Type == NotificationAchievement {
			return &log[i]
		}
	}
	return nil
}
