// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package notify

import (
	"testing"
	"time"

	"github.com/galaktika-app/galaktika/internal/models"
)

func achievement(rankName, label string, createdAt time.Time) models.Notification {
	return models.Notification{
		ID:         rankName + "-" + createdAt.String(),
		Type:       models.NotificationAchievement,
		Categories: [2]string{rankName, label},
		CreatedAt:  createdAt,
	}
}

func TestMaybeNotifyZeroBooks(t *testing.T) {
	if n := MaybeNotify(0, nil); n != nil {
		t.Errorf("MaybeNotify(0) = %v, want nil", n)
	}
}

func TestMaybeNotifyEmptyLog(t *testing.T) {
	n := MaybeNotify(1, nil)
	if n == nil {
		t.Fatal("MaybeNotify(1, empty log) = nil, want notification")
	}
	if n.Type != models.NotificationAchievement {
		t.Errorf("Type = %q, want achievement", n.Type)
	}
	if n.Categories != [2]string{"Novice", "Stargazer"} {
		t.Errorf("Categories = %v, want [Novice Stargazer]", n.Categories)
	}
	if n.ID == "" {
		t.Error("notification has empty ID")
	}
}

func TestMaybeNotifyPromotionBoundary(t *testing.T) {
	// Book count crossing 1 -> 2 crosses Novice -> Voyager.
	n := MaybeNotify(2, nil)
	if n == nil {
		t.Fatal("expected a promotion notification")
	}
	if n.Categories != [2]string{"Voyager", "Pathfinder"} {
		t.Errorf("Categories = %v, want [Voyager Pathfinder]", n.Categories)
	}
}

func TestMaybeNotifyIdempotent(t *testing.T) {
	first := MaybeNotify(2, nil)
	if first == nil {
		t.Fatal("first call returned nil")
	}

	log := []models.Notification{*first}
	if second := MaybeNotify(2, log); second != nil {
		t.Errorf("second call with same count returned %v, want nil", second)
	}
}

func TestMaybeNotifyRankRegressionDoesNotRefire(t *testing.T) {
	// User was promoted to Voyager, dropped to 1 book, then came back to 2.
	// The last recorded achievement still matches Voyager, so no re-fire.
	log := []models.Notification{achievement("Voyager", "Pathfinder", time.Now())}
	if n := MaybeNotify(2, log); n != nil {
		t.Errorf("re-entering recorded tier fired %v, want nil", n)
	}

	// Dropping to Novice is a rank change relative to the record and fires.
	if n := MaybeNotify(1, log); n == nil || n.Categories[0] != "Novice" {
		t.Errorf("demotion below recorded tier did not fire Novice, got %v", n)
	}
}

func TestMaybeNotifyUsesMostRecentAchievement(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log := []models.Notification{
		achievement("Voyager", "Pathfinder", base.Add(time.Hour)),
		{
			ID:        "smart",
			Type:      models.NotificationSmartLink,
			CreatedAt: base.Add(2 * time.Hour),
		},
		achievement("Novice", "Stargazer", base),
	}

	// Latest achievement by CreatedAt is Voyager even though Novice was
	// appended last; count 2 still maps to Voyager, so nothing fires.
	if n := MaybeNotify(2, log); n != nil {
		t.Errorf("got %v, want nil when latest achievement matches", n)
	}

	// Promotion past the latest recorded achievement fires.
	if n := MaybeNotify(5, log); n == nil || n.Categories[0] != "Explorer" {
		t.Errorf("promotion did not fire Explorer, got %v", n)
	}
}

func TestMaybeNotifyTimestampTieKeepsAppendOrder(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log := []models.Notification{
		achievement("Novice", "Stargazer", ts),
		achievement("Voyager", "Pathfinder", ts),
	}

	// Equal CreatedAt: stable ordering keeps Voyager as the most recent.
	if n := MaybeNotify(2, log); n != nil {
		t.Errorf("got %v, want nil under tie-broken latest achievement", n)
	}
}

func TestNewSmartLink(t *testing.T) {
	n := NewSmartLink("SciFi", "History", "A Canticle for Leibowitz", "http://img")
	if n.Type != models.NotificationSmartLink {
		t.Errorf("Type = %q, want smart-link", n.Type)
	}
	if n.Categories != [2]string{"SciFi", "History"} {
		t.Errorf("Categories = %v", n.Categories)
	}
	if n.BookTitle != "A Canticle for Leibowitz" || n.BookImage != "http://img" {
		t.Error("book fields not carried")
	}

	// Enrichment is optional; a bare link still reads fine.
	bare := NewSmartLink("SciFi", "History", "", "")
	if bare.BookTitle != "" {
		t.Error("bare smart link carries a book title")
	}
}
