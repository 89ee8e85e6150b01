// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPService runs an *http.Server under suture supervision. Serve
// blocks until the context is canceled, then shuts the listener down
// gracefully.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPService wraps the server for supervision.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http").Logger(),
	}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("http server shutdown failed")
			return err
		}
		s.logger.Info().Msg("http server stopped")
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// PipelineRunner is the subset of the event pipeline needed for
// supervision. Satisfied by events.Pipeline.
type PipelineRunner interface {
	Serve(ctx context.Context) error
}

// PipelineService runs the event pipeline's router under supervision.
type PipelineService struct {
	pipeline PipelineRunner
	logger   zerolog.Logger
}

// NewPipelineService wraps the pipeline for supervision.
func NewPipelineService(pipeline PipelineRunner, logger zerolog.Logger) *PipelineService {
	return &PipelineService{
		pipeline: pipeline,
		logger:   logger.With().Str("service", "pipeline").Logger(),
	}
}

// Serve implements suture.Service.
func (s *PipelineService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("event pipeline starting")
	err := s.pipeline.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Info().Msg("event pipeline stopped")
	return ctx.Err()
}

func (s *PipelineService) String() string { return "event-pipeline" }
