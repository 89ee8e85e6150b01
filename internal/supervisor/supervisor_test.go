// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingService runs until its context is canceled, counting starts.
type blockingService struct {
	starts atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(testSlog(), DefaultTreeConfig())

	msg := &blockingService{}
	apiSvc := &blockingService{}
	tree.AddMessagingService(msg)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for msg.starts.Load() == 0 || apiSvc.starts.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("services did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.FailureBackoff = 10 * time.Millisecond
	tree := NewTree(testSlog(), cfg)

	crashes := &atomic.Int32{}
	tree.AddMessagingService(crashingService{crashes})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for crashes.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("service restarted %d times, want >= 2", crashes.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type crashingService struct {
	runs *atomic.Int32
}

func (s crashingService) Serve(ctx context.Context) error {
	s.runs.Add(1)
	return errors.New("boom")
}

func TestHTTPServiceStopsOnCancel(t *testing.T) {
	server := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}
	svc := NewHTTPService(server, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Let the listener come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("HTTPService did not stop after cancel")
	}
}

type fakeRunner struct {
	err error
}

func (f fakeRunner) Serve(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestPipelineServicePropagatesFailure(t *testing.T) {
	svc := NewPipelineService(fakeRunner{err: errors.New("router down")}, zerolog.Nop())
	if err := svc.Serve(context.Background()); err == nil {
		t.Error("expected error from failed pipeline")
	}
}

func TestPipelineServiceCleanStop(t *testing.T) {
	svc := NewPipelineService(fakeRunner{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("PipelineService did not stop after cancel")
	}
}
