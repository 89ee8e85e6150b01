// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/galaktika-app/galaktika/internal/graph"
	"github.com/galaktika-app/galaktika/internal/metadata"
	"github.com/galaktika-app/galaktika/internal/metrics"
	"github.com/galaktika-app/galaktika/internal/models"
	"github.com/galaktika-app/galaktika/internal/notify"
)

// BridgeBookFinder is the slice of the metadata client the pipeline needs.
// Lookups are best effort: failures degrade to a bridge without a book.
type BridgeBookFinder interface {
	BridgeBook(ctx context.Context, categoryA, categoryB string) (*metadata.BookRecord, error)
}

// Config holds pipeline tuning.
type Config struct {
	// RetryMaxRetries bounds redelivery of failed handler runs. Default: 3.
	RetryMaxRetries int

	// RetryInitialInterval is the first retry backoff. Default: 100ms.
	RetryInitialInterval time.Duration

	// CloseTimeout bounds handler drain on shutdown. Default: 30s.
	CloseTimeout time.Duration

	// OutputChannelBuffer sizes the in-process Pub/Sub. Default: 64.
	OutputChannelBuffer int64
}

func (c *Config) applyDefaults() {
	if c.RetryMaxRetries == 0 {
		c.RetryMaxRetries = 3
	}
	if c.RetryInitialInterval == 0 {
		c.RetryInitialInterval = 100 * time.Millisecond
	}
	if c.CloseTimeout == 0 {
		c.CloseTimeout = 30 * time.Second
	}
	if c.OutputChannelBuffer == 0 {
		c.OutputChannelBuffer = 64
	}
}

// Pipeline wires the in-process Pub/Sub and the Watermill router around the
// book-added handler.
type Pipeline struct {
	pubsub   *gochannel.GoChannel
	router   *message.Router
	store    graph.Store
	selector *graph.Selector
	books    BridgeBookFinder
	logger   zerolog.Logger
}

// NewPipeline builds the pipeline. books may be nil when no metadata
// service is configured; bridges are then created without a recommended
// book.
func NewPipeline(cfg Config, store graph.Store, selector *graph.Selector, books BridgeBookFinder, logger zerolog.Logger) (*Pipeline, error) {
	cfg.applyDefaults()
	wmLogger := newWatermillAdapter(logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputChannelBuffer,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			Multiplier:      2.0,
			Logger:          wmLogger,
		}.Middleware,
	)

	p := &Pipeline{
		pubsub:   pubsub,
		router:   router,
		store:    store,
		selector: selector,
		books:    books,
		logger:   logger.With().Str("component", "events").Logger(),
	}

	router.AddNoPublisherHandler(
		"book-added-effects",
		TopicBookAdded,
		pubsub,
		p.handleBookAdded,
	)

	return p, nil
}

// PublishBookAdded emits the event for a committed book add.
func (p *Pipeline) PublishBookAdded(ctx context.Context, e BookAddedEvent) error {
	msg, err := e.Message()
	if err != nil {
		return err
	}
	// Detach from the request's cancellation: effects outlive the HTTP
	// response but keep the request's logging context values.
	msg.SetContext(context.WithoutCancel(ctx))
	if err := p.pubsub.Publish(TopicBookAdded, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicBookAdded, err)
	}
	return nil
}

// Serve runs the router until the context is cancelled. It satisfies the
// supervisor's service contract.
func (p *Pipeline) Serve(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running closes once the router is ready to deliver; tests use it to
// publish without racing startup.
func (p *Pipeline) Running() chan struct{} {
	return p.router.Running()
}

// Close shuts the Pub/Sub and router down.
func (p *Pipeline) Close() error {
	if err := p.router.Close(); err != nil {
		return err
	}
	return p.pubsub.Close()
}

// handleBookAdded derives the follow-on effects of one committed book add:
// bridge proposal, rank recomputation and achievement decision. All writes
// land in a single serialized store update, so concurrent adds for the same
// user cannot double-fire an achievement or duplicate a bridge.
func (p *Pipeline) handleBookAdded(msg *message.Message) error {
	e, err := ParseBookAdded(msg)
	if err != nil {
		// Malformed payloads are dropped, not retried.
		p.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed event")
		metrics.EventsProcessed.WithLabelValues("error").Inc()
		return nil
	}
	ctx := msg.Context()

	pair, proposed, err := p.proposeBridge(ctx, e)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues("error").Inc()
		return err
	}

	// Metadata lookup runs outside the store lock; unavailability degrades
	// to a bridge without a recommended book.
	var record *metadata.BookRecord
	if proposed && p.books != nil {
		record, err = p.books.BridgeBook(ctx, pair[0].Name, pair[1].Name)
		if err != nil {
			p.logger.Warn().Err(err).Msg("bridge book lookup unavailable, continuing without enrichment")
			record = nil
		}
	}

	_, err = p.store.Update(ctx, e.UserID, func(g *models.Galaxy) error {
		// Re-check against the committed document under the store lock:
		// the pair was proposed from a snapshot, and a concurrent
		// category delete or accepted bridge may have landed since.
		if proposed &&
			g.FindCategory(pair[0].Name) != nil &&
			g.FindCategory(pair[1].Name) != nil &&
			!g.HasBridge(pair[0].Name, pair[1].Name) {
			bridge := models.Bridge{
				FromCategory: pair[0].Name,
				ToCategory:   pair[1].Name,
			}
			if record != nil {
				bridge.RecommendedBook = record.Title
				bridge.BookImage = record.Image
				bridge.BookLink = record.Link
			}
			g.Bridges = append(g.Bridges, bridge)
			g.Notifications = append(g.Notifications, notify.NewSmartLink(
				pair[0].Name, pair[1].Name, bridge.RecommendedBook, bridge.BookImage,
			))
			metrics.BridgesCreated.Inc()
		}

		if n := notify.MaybeNotify(g.TotalBooks(), g.Notifications); n != nil {
			g.Notifications = append(g.Notifications, *n)
		}
		return nil
	})
	if err != nil {
		metrics.EventsProcessed.WithLabelValues("error").Inc()
		return fmt.Errorf("apply book-added effects: %w", err)
	}

	metrics.EventsProcessed.WithLabelValues("ok").Inc()
	return nil
}

// proposeBridge runs the candidate selection against the committed galaxy.
// The added book already sits in its target category, so only the tags
// pointing at other categories still count as pending.
func (p *Pipeline) proposeBridge(ctx context.Context, e BookAddedEvent) ([2]models.Category, bool, error) {
	var pair [2]models.Category

	galaxy, err := p.store.LoadGalaxy(ctx, e.UserID)
	if err != nil {
		return pair, false, fmt.Errorf("load galaxy: %w", err)
	}

	pending := make([]string, 0, len(e.CategoryTags))
	for _, tag := range e.CategoryTags {
		if !strings.EqualFold(tag, e.Category) {
			pending = append(pending, tag)
		}
	}

	pair, ok := p.selector.SelectBridgeCandidates(galaxy.Categories, pending)
	if !ok {
		metrics.BridgeProposals.WithLabelValues("none").Inc()
		return pair, false, nil
	}

	// Already-bridged pairs are skipped here and re-checked under the
	// store lock before the write.
	if galaxy.HasBridge(pair[0].Name, pair[1].Name) {
		metrics.BridgeProposals.WithLabelValues("none").Inc()
		return pair, false, nil
	}

	metrics.BridgeProposals.WithLabelValues("proposed").Inc()
	return pair, true, nil
}

// newWatermillAdapter bridges Watermill's logger to zerolog.
func newWatermillAdapter(logger zerolog.Logger) watermill.LoggerAdapter {
	return &watermillAdapter{logger: logger.With().Str("component", "watermill").Logger()}
}

type watermillAdapter struct {
	logger zerolog.Logger
}

func (a *watermillAdapter) event(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}

func (a *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.logger.Error().Err(err), fields).Msg(msg)
}

func (a *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(a.logger.Info(), fields).Msg(msg)
}

func (a *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.logger.Debug(), fields).Msg(msg)
}

func (a *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.logger.Trace(), fields).Msg(msg)
}

func (a *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := a.logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return &watermillAdapter{logger: logger}
}
