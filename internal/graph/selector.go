// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package graph

import (
	"math/rand"
	"sync"

	"github.com/galaktika-app/galaktika/internal/models"
)

// bridgeEligibleCount is the effective book count at which a category may
// anchor a new bridge.
const bridgeEligibleCount = 3

// Selector picks category pairs eligible for a new thematic bridge. It is
// safe for concurrent use; the random source is mutex-guarded.
type Selector struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewSelector creates a selector. A zero seed falls back to a fixed default
// so behavior is reproducible unless the caller opts into a varied seed.
func NewSelector(seed int64) *Selector {
	if seed == 0 {
		seed = 42
	}
	return &Selector{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for pair shuffling
	}
}

// SelectBridgeCandidates returns two distinct categories eligible to be
// linked by a new bridge, chosen uniformly at random from the eligible set.
//
// A category is eligible when its effective book count is at least three,
// where the pending tags of a just-added (not yet persisted) book count for
// one extra book under case-insensitive name matching. Fewer than two
// eligible categories yields ok=false: not an error, just no proposal.
//
// The caller is responsible for fetching a recommended book spanning both
// categories and for the duplicate-bridge check before persisting.
func (s *Selector) SelectBridgeCandidates(categories []models.Category, pendingTags []string) (pair [2]models.Category, ok bool) {
	eligible := make([]int, 0, len(categories))
	for i := range categories {
		if categories[i].EffectiveBookCount(pendingTags) >= bridgeEligibleCount {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) < 2 {
		return pair, false
	}

	s.mu.Lock()
	perm := s.rng.Perm(len(eligible))
	s.mu.Unlock()

	pair[0] = categories[eligible[perm[0]]]
	pair[1] = categories[eligible[perm[1]]]
	return pair, true
}
