// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// tenant CMS API. Everything under /api except login requires a bearer
// token naming the caller's tenant.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tenantcms/internal/auth"
	"tenantcms/internal/handlers"
	"tenantcms/internal/middleware"
	"tenantcms/internal/observability/metrics"
)

// Handlers groups the API handler sets.
type Handlers struct {
	Auth       *handlers.Auth
	Posts      *handlers.Posts
	Categories *handlers.Terms
	Tags       *handlers.Terms
	Media      *handlers.Media
}

// New creates the configured chi router wrapped in OpenTelemetry HTTP
// instrumentation. loginLimiter throttles the login endpoint per client.
func New(tokens *auth.TokenManager, loginLimiter *middleware.RateLimiter, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.AccessLog(slog.Default()))
	r.Use(middleware.SecureHeaders)
	r.Use(metrics.HTTPMetricsMiddleware)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimiter.Middleware).Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireTenant(tokens))

			r.Post("/auth/totp/setup", h.Auth.SetupTOTP)
			r.Post("/auth/totp/confirm", h.Auth.ConfirmTOTP)

			r.Route("/categories", termRoutes(h.Categories))
			r.Route("/tags", termRoutes(h.Tags))

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.Posts.List)
				r.Post("/", h.Posts.Create)
				r.Post("/bulk-delete", h.Posts.BulkDelete)
				r.Get("/by-category/{slug}", h.Posts.ListByCategory)
				r.Get("/by-tag/{slug}", h.Posts.ListByTag)
				r.Get("/{lookup}", h.Posts.Get)
				r.Put("/{lookup}", h.Posts.Edit)
				r.Patch("/{lookup}", h.Posts.Edit)
				r.Delete("/{lookup}", h.Posts.Delete)
				r.Post("/{lookup}/archive", h.Posts.Archive)
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", h.Media.List)
				r.Post("/upload", h.Media.Upload)
				r.Get("/stats", h.Media.Stats)
				r.Post("/bulk-delete", h.Media.BulkDelete)
				r.Get("/{id}", h.Media.Get)
				r.Patch("/{id}", h.Media.Update)
				r.Delete("/{id}", h.Media.Delete)
			})
		})
	})

	return otelhttp.NewHandler(r, "tenantcms")
}

// termRoutes mounts the shared category/tag routes.
func termRoutes(t *handlers.Terms) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", t.List)
		r.Post("/", t.Create)
		r.Post("/bulk-delete", t.BulkDelete)
		r.Get("/{id}", t.Get)
		r.Put("/{id}", t.Update)
		r.Patch("/{id}", t.Update)
		r.Delete("/{id}", t.Delete)
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
