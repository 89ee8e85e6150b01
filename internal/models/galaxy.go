// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package models

import (
	"strings"
)

// Book is a single read book inside a category. Titles are unique within
// their category.
type Book struct {
	Title string `json:"title"`
}

// Category is a thematic node in a user's knowledge galaxy. The name is the
// identity (case-sensitive, unique per user); membership checks against
// incoming category tags are case-insensitive. X and Y are normalized
// positions in [0,1] consumed only by the external renderer.
type Category struct {
	Name  string  `json:"name"`
	Image string  `json:"image,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Books []Book  `json:"books"`
}

// BookCount returns the number of committed books in the category.
func (c *Category) BookCount() int {
	return len(c.Books)
}

// EffectiveBookCount returns the committed book count, plus one when the
// pending (not yet persisted) book's category tags contain this category's
// name under case-insensitive comparison. This lets a just-added book qualify
// its category for bridge eligibility before the write lands.
func (c *Category) EffectiveBookCount(pendingTags []string) int {
	count := len(c.Books)
	for _, tag := range pendingTags {
		if strings.EqualFold(tag, c.Name) {
			count++
			break
		}
	}
	return count
}

// HasBook reports whether a book with the given title already exists in the
// category. Titles are compared exactly.
func (c *Category) HasBook(title string) bool {
	for _, b := range c.Books {
		if b.Title == title {
			return true
		}
	}
	return false
}

// Bridge is an edge between two categories, annotated with a book
// recommended because it plausibly spans both themes. Stored directionally
// but undirected in meaning: one active bridge per unordered pair.
type Bridge struct {
	FromCategory    string `json:"from_category"`
	ToCategory      string `json:"to_category"`
	RecommendedBook string `json:"recommended_book,omitempty"`
	BookImage       string `json:"book_image,omitempty"`
	BookLink        string `json:"book_link,omitempty"`
}

// PairKey returns an order-independent identity for the bridge's category
// pair, used to enforce the one-bridge-per-pair invariant.
func (b *Bridge) PairKey() string {
	return PairKey(b.FromCategory, b.ToCategory)
}

// PairKey builds the canonical unordered-pair key for two category names.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x1f" + b
}

// Touches reports whether the bridge references the given category name.
func (b *Bridge) Touches(category string) bool {
	return b.FromCategory == category || b.ToCategory == category
}

// Favorite is a user-favorited book, enriched best-effort with metadata from
// the external lookup service. BookTitle is unique per user.
type Favorite struct {
	BookTitle   string   `json:"book_title"`
	BookAuthors []string `json:"book_authors,omitempty"`
	BookImage   string   `json:"book_image,omitempty"`
}

// Galaxy is the complete per-user graph document held by the store. The
// store applies every mutation to it atomically, so readers never observe a
// partial graph state.
type Galaxy struct {
	Categories    []Category     `json:"categories"`
	Bridges       []Bridge       `json:"bridges"`
	Favorites     []Favorite     `json:"favorites"`
	Interests     []string       `json:"interests,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// TotalBooks returns the number of books across all categories. Rank tiers
// derive from this value and are never persisted.
func (g *Galaxy) TotalBooks() int {
	total := 0
	for i := range g.Categories {
		total += len(g.Categories[i].Books)
	}
	return total
}

// FindCategory returns the category with the exact given name, or nil.
func (g *Galaxy) FindCategory(name string) *Category {
	for i := range g.Categories {
		if g.Categories[i].Name == name {
			return &g.Categories[i]
		}
	}
	return nil
}

// HasBridge reports whether an active bridge already exists for the
// unordered pair of category names.
func (g *Galaxy) HasBridge(a, b string) bool {
	key := PairKey(a, b)
	for i := range g.Bridges {
		if g.Bridges[i].PairKey() == key {
			return true
		}
	}
	return false
}

// FindFavorite returns the favorite with the given book title, or nil.
func (g *Galaxy) FindFavorite(title string) *Favorite {
	for i := range g.Favorites {
		if g.Favorites[i].BookTitle == title {
			return &g.Favorites[i]
		}
	}
	return nil
}
