// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog mirrors the rendering service's templates into the local
// database and serves cached listings of the mirror.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"adstudio/internal/models"
	"adstudio/internal/renderer"
)

const defaultDimension = 1080

// Source lists the templates held by the rendering service.
type Source interface {
	ListTemplates(ctx context.Context) ([]renderer.Template, error)
}

// Store persists mirrored templates.
type Store interface {
	Upsert(ctx context.Context, t *models.RenderTemplate) (*models.RenderTemplate, error)
	ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.RenderTemplate, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.RenderTemplate, error)
	Count(ctx context.Context) (int, error)
}

// Cache holds catalog listings.
type Cache interface {
	Get(ctx context.Context, f models.TemplateFilter) ([]models.RenderTemplate, bool)
	Set(ctx context.Context, f models.TemplateFilter, list []models.RenderTemplate)
	InvalidateAll(ctx context.Context)
}

// Overrides are editable field declarations supplied by hand, keyed by the
// template's external id. They replace inferred fields.
type Overrides map[string]map[string]models.EditableField

// SyncError is a per-template sync failure.
type SyncError struct {
	TemplateID string `json:"templateId"`
	Error      string `json:"error"`
}

// SyncReport summarizes a sync run.
type SyncReport struct {
	Synced  int         `json:"synced"`
	Total   int         `json:"total"`
	Active  int         `json:"active"` // active templates in the mirror after the run
	Errors  []SyncError `json:"errors,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Catalog syncs and lists the mirrored template catalog.
type Catalog struct {
	source      Source
	store       Store
	cache       Cache
	concurrency int
}

// New creates a Catalog. source and cache may be nil: without a source
// Sync fails, without a cache listings always hit the store.
func New(source Source, store Store, cache Cache, concurrency int) *Catalog {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Catalog{source: source, store: store, cache: cache, concurrency: concurrency}
}

// CanSync reports whether a rendering service is configured.
func (c *Catalog) CanSync() bool {
	return c.source != nil
}

// ListTemplates returns active templates matching f, from the cache when
// possible.
func (c *Catalog) ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.RenderTemplate, error) {
	if c.cache != nil {
		if list, ok := c.cache.Get(ctx, f); ok {
			return list, nil
		}
	}
	list, err := c.store.ListTemplates(ctx, f)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, f, list)
	}
	return list, nil
}

// Template returns the active catalog entry for a rendering service id,
// or nil when the id is unknown or retired.
func (c *Catalog) Template(ctx context.Context, externalID string) (*models.RenderTemplate, error) {
	t, err := c.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsActive {
		return nil, nil
	}
	return t, nil
}

// Sync fetches every template from the rendering service and upserts it.
// One template failing does not stop the others; failures are reported.
func (c *Catalog) Sync(ctx context.Context, overrides Overrides) (*SyncReport, error) {
	if c.source == nil {
		return nil, fmt.Errorf("template sync: rendering service not configured")
	}

	remote, err := c.source.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("template sync: %w", err)
	}
	report := &SyncReport{Total: len(remote)}
	if len(remote) == 0 {
		report.Message = "no templates found in the rendering service account"
		return report, nil
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for _, rt := range remote {
		rt := rt
		g.Go(func() error {
			_, err := c.store.Upsert(ctx, toModel(rt, overrides[rt.ID]))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("template sync failed", "template", rt.ID, "error", err)
				report.Errors = append(report.Errors, SyncError{TemplateID: rt.ID, Error: err.Error()})
				return nil
			}
			report.Synced++
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].TemplateID < report.Errors[j].TemplateID
	})

	if c.cache != nil {
		c.cache.InvalidateAll(ctx)
	}
	if n, err := c.store.Count(ctx); err != nil {
		slog.Warn("count templates after sync failed", "error", err)
	} else {
		report.Active = n
	}
	slog.Info("template catalog synced", "synced", report.Synced, "total", report.Total, "active", report.Active, "errors", len(report.Errors))
	return report, nil
}

// toModel converts a service template into a catalog row.
func toModel(rt renderer.Template, override map[string]models.EditableField) *models.RenderTemplate {
	t := &models.RenderTemplate{
		ExternalID: rt.ID,
		Name:       strings.TrimSpace(rt.Name),
		Category:   InferCategory(rt.Name, rt.Tags),
		Width:      rt.Width,
		Height:     rt.Height,
		Tags:       rt.Tags,
		IsActive:   true,
	}
	if t.Name == "" {
		t.Name = "Untitled"
	}
	if t.Width <= 0 {
		t.Width = defaultDimension
	}
	if t.Height <= 0 {
		t.Height = defaultDimension
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if rt.Description != "" {
		d := rt.Description
		t.Description = &d
	}
	if p := firstNonEmpty(rt.PreviewURL, rt.SnapshotURL); p != "" {
		t.PreviewURL = &p
	}

	if override != nil {
		t.EditableFields = override
	} else {
		t.EditableFields = InferEditableFields(rt.Source)
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
