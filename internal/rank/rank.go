// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package rank computes a reader's tier from their total book count.
//
// The engine is a pure, total function over non-negative counts: tiers are
// an ordered ladder scanned once, so the monotonicity invariant (tier index
// never decreases as the count grows) holds by construction. Tiers are never
// persisted; callers recompute them from the live count to avoid staleness.
package rank

// Tier is a named reading milestone derived from total book count.
type Tier struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Label string `json:"label"`

	// Next is the book count at which the following tier is reached, or
	// nil at the ceiling tier.
	Next *int `json:"next,omitempty"`
}

// tierRow is one rung of the ladder. Threshold is the inclusive lower bound
// of the tier: a count equal to a threshold already belongs to that tier.
type tierRow struct {
	threshold int
	name      string
	label     string
	color     string
}

// ladder is ordered ascending by threshold. The scan relies on that order;
// keep it sorted when editing.
var ladder = []tierRow{
	{0, "Novice", "Stargazer", "#9ca3af"},
	{2, "Voyager", "Pathfinder", "#60a5fa"},
	{5, "Explorer", "Trailblazer", "#34d399"},
	{9, "Pilot", "Skyrunner", "#fbbf24"},
	{14, "Commander", "Orbiteer", "#f97316"},
	{20, "Captain", "Starcaptain", "#f43f5e"},
	{28, "Veteran", "Voidwalker", "#a78bfa"},
	{38, "Legend", "Nebula Sage", "#e879f9"},
	{50, "Mythic", "Cosmic Mind", "#22d3ee"},
	{65, "Galactic Overlord", "Master of the Galaxy", "#facc15"},
}

// Rank maps a total book count to its tier. Counts below zero are clamped
// to zero rather than rejected; the store never produces them.
func Rank(bookCount int) Tier {
	if bookCount < 0 {
		bookCount = 0
	}

	idx := 0
	for i, row := range ladder {
		if bookCount < row.threshold {
			break
		}
		idx = i
	}

	row := ladder[idx]
	tier := Tier{
		Name:  row.name,
		Color: row.color,
		Label: row.label,
	}
	if idx+1 < len(ladder) {
		next := ladder[idx+1].threshold
		tier.Next = &next
	}
	return tier
}

// Index returns the zero-based position of the count's tier in the ladder.
// Useful for monotonicity checks and progress displays.
func Index(bookCount int) int {
	if bookCount < 0 {
		bookCount = 0
	}
	idx := 0
	for i, row := range ladder {
		if bookCount < row.threshold {
			break
		}
		idx = i
	}
	return idx
}

// TierCount returns the number of tiers in the ladder.
func TierCount() int {
	return len(ladder)
}
