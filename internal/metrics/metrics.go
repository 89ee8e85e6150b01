// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package metrics exposes Prometheus instrumentation for the galaxy core:
// store mutations, book adds, bridge creation, achievement notifications
// and HTTP request latency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreMutations counts committed galaxy document writes.
	StoreMutations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "galaktika_store_mutations_total",
			Help: "Total number of committed galaxy document mutations",
		},
	)

	// BooksAdded counts successful book additions.
	BooksAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "galaktika_books_added_total",
			Help: "Total number of books added across all users",
		},
	)

	// BridgesCreated counts persisted bridges.
	BridgesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "galaktika_bridges_created_total",
			Help: "Total number of bridges persisted",
		},
	)

	// BridgeProposals counts selector outcomes, labeled by whether a
	// candidate pair was found.
	BridgeProposals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galaktika_bridge_proposals_total",
			Help: "Total number of bridge candidate selections",
		},
		[]string{"outcome"}, // "proposed", "none"
	)

	// AchievementsEmitted counts achievement notifications appended,
	// labeled by rank name.
	AchievementsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galaktika_achievements_emitted_total",
			Help: "Total number of achievement notifications emitted",
		},
		[]string{"rank"},
	)

	// GalaxyResets counts destructive collapse commits.
	GalaxyResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "galaktika_galaxy_resets_total",
			Help: "Total number of galaxy collapse commits",
		},
	)

	// MetadataLookups counts outbound book-metadata lookups by result.
	MetadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galaktika_metadata_lookups_total",
			Help: "Total number of book metadata lookups",
		},
		[]string{"result"}, // "hit", "miss", "error", "open"
	)

	// EventsProcessed counts pipeline events by handler outcome.
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galaktika_events_processed_total",
			Help: "Total number of book-add events processed by the pipeline",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	// HTTPRequestDuration tracks API endpoint latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "galaktika_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}
