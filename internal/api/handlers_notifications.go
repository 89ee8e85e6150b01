// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"net/http"
)

// ListNotifications returns the user's notification log, newest first,
// with the unread count. The session hydrates from the store on every
// list so asynchronously appended entries (achievements, smart links)
// show up.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	session := h.session(userID)
	if err := session.Hydrate(r.Context()); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"notifications": session.List(),
		"unread":        session.UnreadCount(),
	})
}

// MarkNotificationsRead flips every entry in the user's log to read.
func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	session := h.session(userID)
	if err := session.Hydrate(r.Context()); err != nil {
		respondStoreError(w, err)
		return
	}
	session.MarkAllRead(r.Context())
	respondData(w, http.StatusOK, map[string]interface{}{
		"unread": session.UnreadCount(),
	})
}
