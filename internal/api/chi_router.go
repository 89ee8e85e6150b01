// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/galaktika-app/galaktika/internal/middleware"
)

// RouterConfig holds the HTTP-level knobs for route setup.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// Setup configures all HTTP routes on a Chi router.
func Setup(h *Handler, auth *Authenticator, cfg RouterConfig) http.Handler {
	if cfg.RateLimitReqs <= 0 {
		cfg.RateLimitReqs = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints: unauthenticated, permissively rate limited so
	// orchestrator probes never starve.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByRealIP(1000, time.Minute))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Prometheus scrape endpoint, unauthenticated.
	r.Handle("/metrics", promhttp.Handler())

	// Data endpoints: authenticated, rate limited, instrumented.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByRealIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		r.Use(middleware.Prometheus)
		r.Use(auth.Middleware)

		r.Route("/galaxy", func(r chi.Router) {
			r.Get("/", h.GetGalaxy)

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", h.CreateCategory)
				r.Delete("/{name}", h.DeleteCategory)
				r.Post("/{name}/books", h.AddBook)
				r.Delete("/{name}/books/{title}", h.RemoveBook)
			})

			r.Post("/bridges", h.CreateBridge)

			r.Route("/collapse", func(r chi.Router) {
				r.Get("/", h.CollapseStatus)
				r.Post("/", h.CollapseBegin)
				r.Delete("/", h.CollapseCancel)
			})
		})

		r.Get("/rank", h.GetRank)

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.ListFavorites)
			r.Post("/", h.CreateFavorite)
			r.Delete("/{title}", h.DeleteFavorite)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/read", h.MarkNotificationsRead)
		})
	})

	return r
}
