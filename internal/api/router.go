// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelai/sentinel/internal/auth"
	"github.com/sentinelai/sentinel/internal/middleware"
)

// NewRouter assembles the HTTP routes. Health, metrics and the root banner
// are open; everything under /api/v1 and /debug requires an API key.
func NewRouter(h *Handler, authenticator *auth.Authenticator) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.APIKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", h.Root)
	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		if limiter := rateLimiter(h); limiter != nil {
			r.Use(limiter)
		}
		r.Use(authenticator.RequireAPIKey)

		r.Post("/events", h.CreateEvent)
		r.Get("/events", h.ListEvents)
		r.Get("/events/ws", h.ServeEventSocket)

		r.Get("/analysis/status", h.AnalysisStatus)
		r.Get("/analysis/snapshots", h.ListSnapshots)
		r.Post("/analysis/mission", h.AnalyzeMission)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/api-keys", h.CreateAPIKey)
			r.Get("/api-keys", h.ListAPIKeys)
			r.Post("/api-keys/{prefix}/revoke", h.RevokeAPIKey)
		})
	})

	r.Route("/debug", func(r chi.Router) {
		r.Use(authenticator.RequireAPIKey)
		r.Get("/ai-test", h.DebugAITest)
	})

	return r
}

// rateLimiter builds the per-IP limiter for the API group. Returns nil when
// rate limiting is disabled by configuration.
func rateLimiter(h *Handler) func(http.Handler) http.Handler {
	reqs := h.cfg.Security.RateLimitReqs
	if reqs <= 0 {
		return nil
	}
	window := h.cfg.Security.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(reqs, window, httprate.WithKeyFuncs(httprate.KeyByIP))
}
