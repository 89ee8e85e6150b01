// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package main is the entry point for the Galaktika server.
//
// Galaktika is a social reading tracker: each reader grows a personal
// "knowledge galaxy" of book categories, with bridges proposed between
// categories that share books, rank tiers derived from the total book
// count, and achievement notifications on promotion.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML, env)
//  2. Logging: zerolog, structured JSON by default
//  3. Store: BadgerDB holding one galaxy document per user
//  4. Metadata client: optional books-search lookup, circuit-broken
//  5. Event pipeline: Watermill router for post-commit book effects
//  6. HTTP API: Chi router under /api/v1, Prometheus at /metrics
//  7. Supervision: suture tree running the pipeline and HTTP server
//
// # Configuration
//
// Settings come from GALAKTIKA_-prefixed environment variables, an
// optional config.yaml, and built-in defaults (highest priority first).
// See internal/config for the full reference.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP listener
// drains, the pipeline router closes, and Badger closes last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"

	"github.com/galaktika-app/galaktika/internal/api"
	"github.com/galaktika-app/galaktika/internal/config"
	"github.com/galaktika-app/galaktika/internal/events"
	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/logging"
	"github.com/galaktika-app/galaktika/internal/metadata"
	"github.com/galaktika-app/galaktika/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()
	logger.Info().Str("addr", cfg.Server.Addr()).Msg("starting galaktika")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store. Badger closes last so every layer above can flush into it.
	opts := badger.DefaultOptions(cfg.Database.Path).WithLogger(nil)
	if cfg.Database.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger at %s: %w", cfg.Database.Path, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("badger close failed")
		}
	}()

	store := graph.NewBadgerStore(db)
	selector := graph.NewSelector(cfg.Selector.Seed)

	// Optional metadata lookup.
	var books events.BridgeBookFinder
	var enricher api.Enricher
	if cfg.Metadata.Enabled {
		client, err := metadata.NewClient(metadata.Config{
			BaseURL:                 cfg.Metadata.BaseURL,
			Timeout:                 cfg.Metadata.Timeout,
			RequestsPerSecond:       cfg.Metadata.RequestsPerSecond,
			Burst:                   cfg.Metadata.Burst,
			BreakerFailureThreshold: cfg.Metadata.ConsecutiveFailures,
			BreakerOpenTimeout:      cfg.Metadata.OpenTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("metadata client: %w", err)
		}
		books = client
		enricher = client
	}

	// Event pipeline for post-commit book effects.
	pipeline, err := events.NewPipeline(events.Config{
		RetryMaxRetries:      cfg.Pipeline.MaxRetries,
		RetryInitialInterval: cfg.Pipeline.InitialInterval,
		CloseTimeout:         cfg.Pipeline.CloseTimeout,
		OutputChannelBuffer:  cfg.Pipeline.BufferSize,
	}, store, selector, books, logger)
	if err != nil {
		return fmt.Errorf("event pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Error().Err(err).Msg("pipeline close failed")
		}
	}()

	// HTTP API.
	handler := api.NewHandler(store, pipeline, enricher, api.GateOptions{
		Countdown: cfg.Gate.Countdown,
		Interval:  cfg.Gate.Interval,
	})
	authenticator := api.NewAuthenticator(cfg.Auth.Enabled, cfg.Auth.JWTSecret)
	if !cfg.Auth.Enabled {
		logger.Warn().Msg("token signature verification disabled; do not run this mode in production")
	}
	router := api.Setup(handler, authenticator, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervision tree.
	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddMessagingService(supervisor.NewPipelineService(pipeline, logger))
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout, logger))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	logger.Info().Msg("galaktika stopped")
	return nil
}
