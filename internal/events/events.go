// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package events runs the book-add pipeline: every committed book add is
// published as an event, and a Watermill router handler derives the
// follow-on effects (bridge proposal, rank recomputation, achievement
// notification) serialized per user by the graph store.
package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicBookAdded carries BookAddedEvent payloads.
const TopicBookAdded = "book.added"

// SchemaVersion is the current BookAddedEvent format version.
const SchemaVersion = 1

// BookAddedEvent announces that a book was committed to a category. It is
// published only after the store write succeeded, so handlers always see
// the book in the loaded galaxy.
type BookAddedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	Category      string    `json:"category"`
	BookTitle     string    `json:"book_title"`
	Timestamp     time.Time `json:"timestamp"`

	// CategoryTags holds the added book's category tags from metadata.
	// Tags other than the target category count the pending book toward
	// bridge eligibility of case-insensitively matching categories.
	CategoryTags []string `json:"category_tags,omitempty"`
}

// NewBookAddedEvent builds a fully-identified event.
func NewBookAddedEvent(userID, category, bookTitle string, tags []string) BookAddedEvent {
	return BookAddedEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		Category:      category,
		BookTitle:     bookTitle,
		Timestamp:     time.Now().UTC(),
		CategoryTags:  tags,
	}
}

// Message marshals the event into a Watermill message keyed by EventID.
func (e BookAddedEvent) Message() (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal book-added event: %w", err)
	}
	return message.NewMessage(e.EventID, payload), nil
}

// ParseBookAdded unmarshals and sanity-checks an event payload.
func ParseBookAdded(msg *message.Message) (BookAddedEvent, error) {
	var e BookAddedEvent
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return e, fmt.Errorf("unmarshal book-added event: %w", err)
	}
	if e.UserID == "" || e.Category == "" {
		return e, fmt.Errorf("book-added event %s missing user or category", msg.UUID)
	}
	return e, nil
}
