// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campwatch/campwatch/internal/config"
	"github.com/campwatch/campwatch/internal/middleware"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler  *Handler
	security config.SecurityConfig
}

// NewRouter builds the router around a handler set.
func NewRouter(handler *Handler, security config.SecurityConfig) *Router {
	return &Router{handler: handler, security: security}
}

// Setup configures all routes and returns the root handler.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	// Health endpoints get a permissive limit so monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rt.rateLimit(1000, time.Minute))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rateLimit(rt.security.RateLimitReqs, rt.security.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		r.Post("/logs", rt.handler.AddLog)
		r.Post("/logs/batch", rt.handler.AddLogs)
		r.Get("/logs", rt.handler.ListLogs)

		r.Post("/archive/trigger", rt.handler.TriggerArchive)
		r.Get("/archive/records", rt.handler.ListArchiveRecords)

		r.Post("/blocklist", rt.handler.Block)
		r.Post("/blocklist/unblock", rt.handler.Unblock)
		r.Get("/blocklist", rt.handler.ListBlocklist)

		r.Post("/users", rt.handler.AddUser)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimit builds an IP-keyed limiter, or a no-op when disabled.
func (rt *Router) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if rt.security.RateLimitDisabled || requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
}
