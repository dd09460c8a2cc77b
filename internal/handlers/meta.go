// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"adstudio/internal/brand"
	"adstudio/internal/models"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// Meta serves health and static reference data.
type Meta struct {
	brand    *brand.Context
	checks   map[string]HealthCheck
	services map[string]bool
}

// NewMeta creates the meta handler group. checks are probed by Health;
// services reports which optional integrations are configured.
func NewMeta(b *brand.Context, checks map[string]HealthCheck, services map[string]bool) *Meta {
	return &Meta{brand: b, checks: checks, services: services}
}

// Health reports the status of every backing service. Any failing check
// makes the response a 503.
func (m *Meta) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := m.checks[name](ctx); err != nil {
			slog.Warn("health check failed", "service", name, "error", err)
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":   overall,
		"checks":   checks,
		"services": m.services,
	})
}

// AdSizes lists the canvas presets.
func (m *Meta) AdSizes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sizes": models.AdSizes})
}

// Brand returns the brand context the prompts are built from.
func (m *Meta) Brand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"brand":   m.brand,
		"flavors": m.brand.Flavors(),
	})
}
