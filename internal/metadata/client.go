// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package metadata is the client for the external book-metadata lookup
// service. The core treats every failure here as "enrichment unavailable":
// callers degrade gracefully (skip the bridge book, keep the bare favorite)
// instead of failing the user's operation.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/galaktika-app/galaktika/internal/metrics"
)

// ErrUnavailable wraps every lookup failure: transport errors, non-2xx
// responses, malformed payloads, rate-limit waits cut short and an open
// circuit all collapse into it. Never fatal to the calling operation.
var ErrUnavailable = errors.New("book metadata lookup unavailable")

// BookRecord is one candidate book returned by the lookup service.
type BookRecord struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Image      string   `json:"image,omitempty"`
	Link       string   `json:"link,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// searchResponse is the lookup service's wire shape.
type searchResponse struct {
	Results []BookRecord `json:"results"`
}

// Config holds client settings.
type Config struct {
	// BaseURL of the lookup service, e.g. "https://books.example.com".
	BaseURL string

	// Timeout per request. Default: 5s.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound lookups. Default: 5.
	RequestsPerSecond float64

	// Burst for the rate limiter. Default: 10.
	Burst int

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit. Default: 5.
	BreakerFailureThreshold uint32

	// BreakerOpenTimeout is how long the circuit stays open. Default: 30s.
	BreakerOpenTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
	if c.BreakerFailureThreshold == 0 {
		c.BreakerFailureThreshold = 5
	}
	if c.BreakerOpenTimeout == 0 {
		c.BreakerOpenTimeout = 30 * time.Second
	}
}

// Client performs rate-limited, circuit-broken lookups.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]BookRecord]
	logger  zerolog.Logger
}

// NewClient creates a lookup client.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("metadata: base URL is required")
	}
	cfg.applyDefaults()

	settings := gobreaker.Settings{
		Name:    "book-metadata",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[[]BookRecord](settings),
		logger:  logger.With().Str("component", "metadata").Logger(),
	}, nil
}

// Search queries the lookup service with free text and returns candidate
// records. Any failure returns ErrUnavailable (wrapped).
func (c *Client) Search(ctx context.Context, query string) ([]BookRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records, err := c.breaker.Execute(func() ([]BookRecord, error) {
		return c.doSearch(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.MetadataLookups.WithLabelValues("open").Inc()
		} else {
			metrics.MetadataLookups.WithLabelValues("error").Inc()
		}
		c.logger.Warn().Err(err).Str("query", query).Msg("book lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(records) == 0 {
		metrics.MetadataLookups.WithLabelValues("miss").Inc()
	} else {
		metrics.MetadataLookups.WithLabelValues("hit").Inc()
	}
	return records, nil
}

// BridgeBook finds one book plausibly spanning both categories: the first
// result for the combined category query. Returns nil without error when
// the service has no candidate.
func (c *Client) BridgeBook(ctx context.Context, categoryA, categoryB string) (*BookRecord, error) {
	records, err := c.Search(ctx, categoryA+" "+categoryB)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Enrich fills in authors and cover image for a favorite's title. Returns
// nil without error when nothing matches.
func (c *Client) Enrich(ctx context.Context, title string) (*BookRecord, error) {
	records, err := c.Search(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *Client) doSearch(ctx context.Context, query string) ([]BookRecord, error) {
	u := fmt.Sprintf("%s/v1/books/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Results, nil
}
