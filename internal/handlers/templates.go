// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"adstudio/internal/catalog"
	"adstudio/internal/models"
	"adstudio/internal/pipeline"
	"adstudio/internal/renderer"
)

// TemplateCatalog lists and syncs the mirrored template catalog.
type TemplateCatalog interface {
	ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.RenderTemplate, error)
	Template(ctx context.Context, externalID string) (*models.RenderTemplate, error)
	Sync(ctx context.Context, overrides catalog.Overrides) (*catalog.SyncReport, error)
	CanSync() bool
}

// outputFormats are the render formats the rendering service accepts.
var outputFormats = map[string]bool{"png": true, "jpg": true, "gif": true, "mp4": true}

// Templates groups the template catalog and rendering endpoints.
type Templates struct {
	pipeline *pipeline.Pipeline
	studio   *Studio
	catalog  TemplateCatalog
	renderer pipeline.Renderer
}

// NewTemplates creates the template handler group. renderer may be nil when
// the rendering service is not configured.
func NewTemplates(p *pipeline.Pipeline, studio *Studio, c TemplateCatalog, r pipeline.Renderer) *Templates {
	return &Templates{pipeline: p, studio: studio, catalog: c, renderer: r}
}

func (t *Templates) rendererReady(w http.ResponseWriter) bool {
	if t.renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "The rendering service is not configured.")
		return false
	}
	return true
}

// outputFormat returns the requested format, defaulting to png. It writes a
// 400 and returns false for unknown formats.
func outputFormat(w http.ResponseWriter, f string) (string, bool) {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "" {
		return "png", true
	}
	if !outputFormats[f] {
		writeError(w, http.StatusBadRequest, "Unsupported output format "+strconv.Quote(f)+".")
		return "", false
	}
	return f, true
}

// Generate picks the best catalog template for a brief and renders it.
func (t *Templates) Generate(w http.ResponseWriter, r *http.Request) {
	var in briefInput
	if !decodeJSON(w, r, &in) || !t.studio.ready(w) || !t.rendererReady(w) {
		return
	}
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, http.StatusBadRequest, "No description provided.")
		return
	}
	req, ok := t.studio.request(w, r, in)
	if !ok {
		return
	}

	res, err := t.pipeline.GenerateFromTemplate(r.Context(), req)
	if err != nil {
		writeFailure(w, "generate from template", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Render renders one template by id.
func (t *Templates) Render(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TemplateID    string         `json:"templateId"`
		Modifications map[string]any `json:"modifications"`
		OutputFormat  string         `json:"outputFormat"`
	}
	if !decodeJSON(w, r, &in) || !t.rendererReady(w) {
		return
	}
	id := strings.TrimSpace(in.TemplateID)
	if id == "" {
		writeError(w, http.StatusBadRequest, "No template ID provided.")
		return
	}
	format, ok := outputFormat(w, in.OutputFormat)
	if !ok {
		return
	}

	// Only mirrored, active templates are rendered.
	tmpl, err := t.catalog.Template(r.Context(), id)
	if err != nil {
		writeFailure(w, "render", err)
		return
	}
	if tmpl == nil {
		writeError(w, http.StatusNotFound, "Template "+strconv.Quote(id)+" is not in the catalog. Run a template sync first.")
		return
	}

	renders, err := t.renderer.Render(r.Context(), renderer.Job{
		TemplateID:    id,
		Modifications: in.Modifications,
		OutputFormat:  format,
	})
	if err == nil && len(renders) == 0 {
		err = renderer.ErrNoRenders
	}
	if err != nil {
		writeFailure(w, "render", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"renderUrl":   renders[0].URL,
		"snapshotUrl": optional(renders[0].SnapshotURL),
		"width":       renders[0].Width,
		"height":      renders[0].Height,
	})
}

// renderSummary is one entry of a multi-size render.
type renderSummary struct {
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	TemplateID   string `json:"templateId"`
	TemplateName string `json:"templateName"`
}

// RenderMulti renders every template carrying all the given tags, which
// produces the same creative in several sizes.
func (t *Templates) RenderMulti(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Tags          []string       `json:"tags"`
		Modifications map[string]any `json:"modifications"`
		OutputFormat  string         `json:"outputFormat"`
	}
	if !decodeJSON(w, r, &in) || !t.rendererReady(w) {
		return
	}
	if len(in.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "No tags provided.")
		return
	}
	if msg := validateTags(in.Tags); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	format, ok := outputFormat(w, in.OutputFormat)
	if !ok {
		return
	}

	renders, err := t.renderer.Render(r.Context(), renderer.Job{
		Tags:          in.Tags,
		Modifications: in.Modifications,
		OutputFormat:  format,
	})
	if err != nil {
		writeFailure(w, "render multi", err)
		return
	}
	if len(renders) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"renders": []renderSummary{},
			"message": "No templates matched the given tags",
		})
		return
	}

	out := make([]renderSummary, 0, len(renders))
	for _, rd := range renders {
		out = append(out, renderSummary{
			URL:          rd.URL,
			Width:        rd.Width,
			Height:       rd.Height,
			TemplateID:   rd.TemplateID,
			TemplateName: rd.TemplateName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"renders": out})
}

// List returns active catalog templates, optionally filtered by category
// and exact size.
func (t *Templates) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.TemplateFilter{Category: strings.TrimSpace(q.Get("category"))}
	for _, dim := range []struct {
		name string
		dst  *int
	}{{"width", &f.Width}, {"height", &f.Height}} {
		v := q.Get(dim.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid "+dim.name+".")
			return
		}
		*dim.dst = n
	}

	list, err := t.catalog.ListTemplates(r.Context(), f)
	if err != nil {
		writeFailure(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

// Sync mirrors the rendering service's templates into the catalog. The
// optional body {"editableFields": {templateId: {...}}} overrides the
// inferred fields per template.
func (t *Templates) Sync(w http.ResponseWriter, r *http.Request) {
	if !t.catalog.CanSync() {
		writeError(w, http.StatusServiceUnavailable, "The rendering service is not configured.")
		return
	}
	var in struct {
		EditableFields catalog.Overrides `json:"editableFields"`
	}
	if !decodeOptionalJSON(w, r, &in) {
		return
	}

	report, err := t.catalog.Sync(r.Context(), in.EditableFields)
	if err != nil {
		writeFailure(w, "template sync", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
