// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waypool/waypool-realtime/internal/auth"
	"github.com/waypool/waypool-realtime/internal/config"
	"github.com/waypool/waypool-realtime/internal/realtime"
)

// Router assembles the Chi router from the handler set and middleware
// factories.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router for the realtime server.
func NewRouter(hub *realtime.Hub, verifier *auth.Verifier, cfg *config.Config) *Router {
	return &Router{
		handler: NewHandler(hub, verifier, cfg),
		chiMiddleware: NewChiMiddlewareFromConfig(
			cfg.Security.CORSOrigins,
			cfg.Security.RateLimitReqs,
			cfg.Security.RateLimitWindow,
			cfg.Security.RateLimitDisabled,
		),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS is global so
	// OPTIONS preflight is handled everywhere.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// WebSocket endpoint. The standard rate limit bounds upgrade attempts;
	// per-event limits live inside the realtime package.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Get("/ws", router.handler.WebSocket)
	})

	// Health endpoints get a permissive limit so monitors can poll often.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(PrometheusMetrics)
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
