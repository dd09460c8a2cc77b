// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "ratelimit:"

// RateLimiter is a fixed-window counter shared by every server instance.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter allows limit requests per key per window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{client: client, limit: int64(limit), window: window}
}

// Allow counts one request for key and reports whether it is within the
// limit. Callers decide what to do when Valkey itself fails.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().Unix() / int64(rl.window.Seconds())
	k := fmt.Sprintf("%s%s:%d", rateKeyPrefix, key, bucket)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= rl.limit, nil
}
