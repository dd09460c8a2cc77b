// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"adstudio/internal/models"
)

const (
	templateKeyPrefix = "templates:"

	// DefaultTemplateTTL is how long a catalog listing stays cached.
	DefaultTemplateTTL = 10 * time.Minute
)

// TemplateCache caches catalog listings per filter. Errors are logged and
// treated as misses so the database stays the source of truth.
type TemplateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTemplateCache creates a cache backed by the given Valkey client.
func NewTemplateCache(client *redis.Client, ttl time.Duration) *TemplateCache {
	if ttl == 0 {
		ttl = DefaultTemplateTTL
	}
	return &TemplateCache{client: client, ttl: ttl}
}

// TemplateKey returns the cache key for a filter.
func TemplateKey(f models.TemplateFilter) string {
	return fmt.Sprintf("%s%s:%d:%d", templateKeyPrefix, f.Category, f.Width, f.Height)
}

// Get returns the cached listing for a filter.
func (tc *TemplateCache) Get(ctx context.Context, f models.TemplateFilter) ([]models.RenderTemplate, bool) {
	val, err := tc.client.Get(ctx, TemplateKey(f)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("template cache get error", "key", TemplateKey(f), "error", err)
		return nil, false
	}
	var list []models.RenderTemplate
	if err := json.Unmarshal(val, &list); err != nil {
		slog.Warn("template cache decode error", "key", TemplateKey(f), "error", err)
		return nil, false
	}
	return list, true
}

// Set stores a listing for a filter.
func (tc *TemplateCache) Set(ctx context.Context, f models.TemplateFilter, list []models.RenderTemplate) {
	data, err := json.Marshal(list)
	if err != nil {
		slog.Warn("template cache encode error", "error", err)
		return
	}
	if err := tc.client.Set(ctx, TemplateKey(f), data, tc.ttl).Err(); err != nil {
		slog.Warn("template cache set error", "key", TemplateKey(f), "error", err)
	}
}

// InvalidateAll removes every cached listing.
func (tc *TemplateCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := tc.client.Scan(ctx, cursor, templateKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("template cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := tc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("template cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("template cache cleared", "deleted", deleted)
	}
}
