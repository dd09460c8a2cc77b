// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: a scripted AI provider and in-memory stand-ins for the stores,
// object storage, catalog and rendering service.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adstudio/internal/ai"
	"adstudio/internal/brand"
	"adstudio/internal/catalog"
	"adstudio/internal/models"
	"adstudio/internal/pipeline"
	"adstudio/internal/placeholder"
	"adstudio/internal/prompt"
	"adstudio/internal/render"
	"adstudio/internal/renderer"
	"adstudio/internal/store"
)

// mockAIProvider implements ai.Provider, answering with its responses in
// order. An error entry is returned as the call's error.
type mockAIProvider struct {
	mu        sync.Mutex
	responses []any
	requests  []*ai.Request
}

func (m *mockAIProvider) Name() string { return "test" }

func (m *mockAIProvider) Complete(_ context.Context, req *ai.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return "", errors.New("unexpected completion call")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

type mockModerator struct {
	result *ai.ModerationResult
	err    error
}

func (m mockModerator) CheckSafety(context.Context, string) (*ai.ModerationResult, error) {
	return m.result, m.err
}

// memAssets is an in-memory AssetStore.
type memAssets struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.BrandAsset
	err   error
}

func (m *memAssets) Create(_ context.Context, a *models.BrandAsset) (*models.BrandAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.items == nil {
		m.items = map[uuid.UUID]models.BrandAsset{}
	}
	c := *a
	c.ID = uuid.New()
	c.IsActive = true
	c.CreatedAt = time.Now()
	m.items[c.ID] = c
	return &c, nil
}

func (m *memAssets) List(_ context.Context, f store.AssetFilter) ([]models.BrandAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BrandAsset
	for _, a := range m.items {
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAssets) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.BrandAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BrandAsset
	for _, id := range ids {
		if a, ok := m.items[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssets) Update(_ context.Context, id uuid.UUID, u store.AssetUpdate) (*models.BrandAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Category != nil {
		a.Category = *u.Category
	}
	if u.IsActive != nil {
		a.IsActive = *u.IsActive
	}
	m.items[id] = a
	return &a, nil
}

func (m *memAssets) Delete(_ context.Context, id uuid.UUID) (*models.BrandAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	delete(m.items, id)
	return &a, nil
}

// memGallery is an in-memory GalleryStore.
type memGallery struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.GalleryAd
}

func (m *memGallery) Create(_ context.Context, g *models.GalleryAd) (*models.GalleryAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[uuid.UUID]models.GalleryAd{}
	}
	c := *g
	c.ID = uuid.New()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	m.items[c.ID] = c
	return &c, nil
}

func (m *memGallery) FindByID(_ context.Context, id uuid.UUID) (*models.GalleryAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *memGallery) List(_ context.Context, f models.GalleryFilter) ([]models.GalleryAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GalleryAd
	for _, g := range m.items {
		if f.Channel != "" && (g.Channel == nil || *g.Channel != f.Channel) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *memGallery) Update(_ context.Context, id uuid.UUID, u store.GalleryUpdate) (*models.GalleryAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.HTML != nil {
		g.HTML = *u.HTML
	}
	if u.Fields != nil {
		g.Fields = u.Fields
	}
	if u.Colors != nil {
		g.Colors = *u.Colors
	}
	if u.Tags != nil {
		g.Tags = u.Tags
	}
	if u.HTML != nil || u.Fields != nil || u.Colors != nil {
		g.ExportKey, g.ExportURL = nil, nil
	}
	m.items[id] = g
	return &g, nil
}

func (m *memGallery) SetExport(_ context.Context, id uuid.UUID, key, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return errors.New("sql: no rows in result set")
	}
	g.ExportKey, g.ExportURL = &key, &url
	m.items[id] = g
	return nil
}

func (m *memGallery) Delete(_ context.Context, id uuid.UUID) (*models.GalleryAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	delete(m.items, id)
	return &g, nil
}

// memObjects is an in-memory ObjectStore.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (m *memObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://cdn.example/" + key, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fakeCatalog is a TemplateCatalog over a fixed template list.
type fakeCatalog struct {
	templates []models.RenderTemplate
	canSync   bool
	filters   []models.TemplateFilter
	overrides catalog.Overrides
	err       error
}

func (f *fakeCatalog) ListTemplates(_ context.Context, filter models.TemplateFilter) ([]models.RenderTemplate, error) {
	f.filters = append(f.filters, filter)
	out := []models.RenderTemplate{}
	for _, t := range f.templates {
		if filter.Width > 0 && t.Width != filter.Width {
			continue
		}
		if filter.Height > 0 && t.Height != filter.Height {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeCatalog) Template(_ context.Context, id string) (*models.RenderTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.templates {
		if t.ExternalID == id && t.IsActive {
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) Sync(_ context.Context, overrides catalog.Overrides) (*catalog.SyncReport, error) {
	f.overrides = overrides
	return &catalog.SyncReport{Synced: len(f.templates), Total: len(f.templates)}, nil
}

func (f *fakeCatalog) CanSync() bool { return f.canSync }

// fakeRenderer records jobs and answers with fixed renders.
type fakeRenderer struct {
	renders []renderer.Render
	err     error
	jobs    []renderer.Job
}

func (f *fakeRenderer) Render(_ context.Context, job renderer.Job) ([]renderer.Render, error) {
	f.jobs = append(f.jobs, job)
	return f.renders, f.err
}

// testEnv holds the handler groups and their fakes.
type testEnv struct {
	AI        *mockAIProvider
	Registry  *ai.Registry
	Assets    *memAssets
	GalleryDB *memGallery
	Objects   *memObjects
	Catalog   *fakeCatalog
	Renderer  *fakeRenderer
	Brand     *brand.Context

	Studio    *Studio
	Templates *Templates
	Library   *Assets
	Gallery   *Gallery
	Meta      *Meta
}

// newTestEnv builds every handler group over fakes. Self-review is off so
// each AI endpoint makes exactly the calls its test scripts.
func newTestEnv(t *testing.T, responses ...any) *testEnv {
	t.Helper()

	b, err := brand.Default()
	if err != nil {
		t.Fatalf("brand.Default: %v", err)
	}
	rn, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	mock := &mockAIProvider{responses: responses}
	registry := ai.NewRegistry("test", map[string]ai.ProviderConfig{})
	registry.Register("test", mock)

	env := &testEnv{
		AI:        mock,
		Registry:  registry,
		Assets:    &memAssets{},
		GalleryDB: &memGallery{},
		Objects:   &memObjects{},
		Catalog:   &fakeCatalog{canSync: true},
		Renderer: &fakeRenderer{renders: []renderer.Render{{
			ID: "r1", Status: renderer.StatusSucceeded, URL: "https://cdn.example/r1.png",
			SnapshotURL: "https://cdn.example/r1.jpg", Width: 1080, Height: 1080,
		}}},
		Brand: b,
	}

	p := pipeline.New(registry, prompt.New(b), env.Catalog, env.Renderer, pipeline.Options{})
	env.Studio = NewStudio(p, registry, env.Assets)
	env.Templates = NewTemplates(p, env.Studio, env.Catalog, env.Renderer)
	env.Library = NewAssets(env.Assets, env.Objects)
	env.Gallery = NewGallery(env.GalleryDB, env.Objects, rn, b, placeholder.PolicyBlank)
	env.Meta = NewMeta(b, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}, map[string]bool{"renderer": true})
	return env
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withID adds the chi {id} URL parameter to a request.
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody decodes a JSON response body.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// testPNG returns an encoded w x h PNG.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
