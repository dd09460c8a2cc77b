// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"adstudio/internal/ai"
	"adstudio/internal/brand"
	"adstudio/internal/cache"
	"adstudio/internal/catalog"
	"adstudio/internal/database"
	"adstudio/internal/handlers"
	"adstudio/internal/middleware"
	"adstudio/internal/pipeline"
	"adstudio/internal/prompt"
	"adstudio/internal/render"
	"adstudio/internal/router"
	"adstudio/internal/storage"
	"adstudio/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP API server.

Pending migrations are applied on startup. The AI provider, rendering
service, object storage and Valkey are optional; endpoints that need a
missing service answer 503.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func loadBrand() (*brand.Context, error) {
	if cfg.BrandFile != "" {
		return brand.Load(cfg.BrandFile)
	}
	return brand.Default()
}

func runServe(ctx context.Context) error {
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	b, err := loadBrand()
	if err != nil {
		return fmt.Errorf("brand context: %w", err)
	}

	svc := newServices(ctx, db)
	defer svc.Close()

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, cfg.Providers)
	if cfg.ModerationEnabled {
		aiRegistry.SetModerator(ai.NewModerator(cfg.Providers))
	}
	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
		"ready", aiRegistry.Ready(),
	)

	// Object storage is optional; uploads and exports answer 503 without it.
	var objects handlers.ObjectStore
	storageClient, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return err
	}
	if storageClient != nil {
		objects = storageClient
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, asset uploads and exports disabled")
	}

	var limiter middleware.Limiter
	if cfg.RateLimitPerMinute > 0 {
		if svc.Valkey != nil {
			limiter = cache.NewRateLimiter(svc.Valkey, cfg.RateLimitPerMinute, time.Minute)
		} else {
			ml := middleware.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
			defer ml.Stop()
			limiter = ml
		}
	}

	rn, err := render.New()
	if err != nil {
		return fmt.Errorf("preview renderer: %w", err)
	}

	assetStore := store.NewAssetStore(db)
	p := pipeline.New(aiRegistry, prompt.New(b), svc.Catalog, svc.Renderer, pipeline.Options{
		ReviewPasses: cfg.ReviewMaxPasses,
	})
	studio := handlers.NewStudio(p, aiRegistry, assetStore)

	checks := map[string]handlers.HealthCheck{"database": db.PingContext}
	if svc.Valkey != nil {
		checks["valkey"] = func(ctx context.Context) error { return svc.Valkey.Ping(ctx).Err() }
	}

	r := router.New(router.Handlers{
		Studio:    studio,
		Templates: handlers.NewTemplates(p, studio, svc.Catalog, svc.Renderer),
		Assets:    handlers.NewAssets(assetStore, objects),
		Gallery:   handlers.NewGallery(store.NewGalleryStore(db), objects, rn, b, cfg.PlaceholderPolicy),
		Meta: handlers.NewMeta(b, checks, map[string]bool{
			"ai":         aiRegistry.Ready(),
			"renderer":   svc.Renderer != nil,
			"storage":    objects != nil,
			"valkey":     svc.Valkey != nil,
			"moderation": cfg.ModerationEnabled,
		}),
	}, router.Options{Limiter: limiter, TrustProxy: cfg.TrustProxyHeaders})

	var scheduler *catalog.Scheduler
	if cfg.TemplateSyncSchedule != "" && svc.Catalog.CanSync() {
		scheduler, err = catalog.NewScheduler(svc.Catalog, cfg.TemplateSyncSchedule)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	// WriteTimeout must cover a recreate with extended reasoning plus a
	// template render with polling.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
