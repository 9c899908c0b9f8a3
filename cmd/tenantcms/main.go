// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the tenant CMS API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tenantcms/internal/auth"
	"tenantcms/internal/cache"
	"tenantcms/internal/config"
	"tenantcms/internal/database"
	"tenantcms/internal/handlers"
	"tenantcms/internal/jobs"
	"tenantcms/internal/middleware"
	"tenantcms/internal/models"
	"tenantcms/internal/observability/tracing"
	"tenantcms/internal/respond"
	"tenantcms/internal/router"
	"tenantcms/internal/service"
	"tenantcms/internal/storage"
	"tenantcms/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text elsewhere.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, "tenantcms", cfg.Env)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db.DB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey post cache (optional).
	var postCache *cache.PostCache
	if cfg.CacheEnabled() {
		var valkeyClient *redis.Client
		valkeyClient, err = cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		postCache = cache.NewPostCache(valkeyClient, cfg.PostCacheTTL)
	} else {
		slog.Warn("valkey not configured, post caching disabled")
	}

	// S3-compatible object storage (optional; uploads fail without it).
	storageClient, err := storage.New(ctx, storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	var blobs service.BlobStore
	if storageClient != nil {
		blobs = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	errs := respond.Writer{Expose: !cfg.IsProduction()}

	postSvc := service.NewPostService(db, postCache, cfg.NavExcludedCategory)
	categorySvc := service.NewTermService(db, models.TermCategory, postCache)
	tagSvc := service.NewTermService(db, models.TermTag, postCache)
	mediaSvc := service.NewMediaService(db, blobs, postCache)
	authSvc := service.NewAuthService(store.NewUserStore(db), store.NewTenantStore(db), tokens)

	// Login is limited to 10 attempts per client per minute.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r := router.New(tokens, loginLimiter, router.Handlers{
		Auth:       handlers.NewAuth(authSvc, errs),
		Posts:      handlers.NewPosts(postSvc, errs),
		Categories: handlers.NewTerms(categorySvc, errs),
		Tags:       handlers.NewTerms(tagSvc, errs),
		Media:      handlers.NewMedia(mediaSvc, errs),
	})

	// Background purge of soft-deleted categories and tags.
	purger := jobs.NewPurger(cfg.PurgeRetention,
		store.NewTermStore(db, models.TermCategory),
		store.NewTermStore(db, models.TermTag),
	)
	scheduler, err := jobs.NewScheduler(cfg.PurgeSchedule, purger)
	if err != nil {
		slog.Error("failed to schedule background jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// WriteTimeout accommodates multi-file uploads to object storage.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("tracing shutdown failed", "error", err)
	}

	slog.Info("server stopped gracefully")
}
