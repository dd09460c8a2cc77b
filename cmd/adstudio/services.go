// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"adstudio/internal/cache"
	"adstudio/internal/catalog"
	"adstudio/internal/pipeline"
	"adstudio/internal/renderer"
	"adstudio/internal/store"
)

// services holds the optional integrations shared by the server and the
// one-shot commands. Every interface field is nil when its service is not
// configured, never a typed nil pointer.
type services struct {
	Valkey   *redis.Client
	Renderer pipeline.Renderer
	Catalog  *catalog.Catalog
}

// newServices connects the optional services. Failures to reach Valkey are
// logged and the app runs without it.
func newServices(ctx context.Context, db *sql.DB) *services {
	s := &services{}

	if cfg.HasValkey() {
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Warn("valkey unavailable, running without cache", "error", err)
		} else {
			s.Valkey = client
		}
	} else {
		slog.Warn("valkey not configured, template cache and shared rate limits disabled")
	}

	var source catalog.Source
	rc := renderer.New(renderer.Config{
		APIKey:       cfg.RenderAPIKey,
		BaseURL:      cfg.RenderBaseURL,
		PollInterval: cfg.RenderPollInterval,
		PollAttempts: cfg.RenderPollAttempts,
	})
	if rc != nil {
		s.Renderer = rc
		source = rc
	} else {
		slog.Warn("rendering service not configured, template flows disabled")
	}

	var templateCache catalog.Cache
	if s.Valkey != nil {
		templateCache = cache.NewTemplateCache(s.Valkey, cfg.TemplateCacheTTL)
	}
	s.Catalog = catalog.New(source, store.NewTemplateStore(db), templateCache, cfg.TemplateSyncConcurrency)
	return s
}

// Close releases the connections held by s.
func (s *services) Close() {
	if s.Valkey != nil {
		if err := s.Valkey.Close(); err != nil {
			slog.Warn("valkey close failed", "error", err)
		}
	}
}
