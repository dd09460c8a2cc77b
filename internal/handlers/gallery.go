// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"adstudio/internal/brand"
	"adstudio/internal/imaging"
	"adstudio/internal/models"
	"adstudio/internal/placeholder"
	"adstudio/internal/render"
	"adstudio/internal/slug"
	"adstudio/internal/storage"
	"adstudio/internal/store"
)

// maxExportSize bounds an exported PNG (25 MB).
const maxExportSize = 25 << 20

// GalleryStore persists saved ads.
type GalleryStore interface {
	Create(ctx context.Context, g *models.GalleryAd) (*models.GalleryAd, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.GalleryAd, error)
	List(ctx context.Context, f models.GalleryFilter) ([]models.GalleryAd, error)
	Update(ctx context.Context, id uuid.UUID, u store.GalleryUpdate) (*models.GalleryAd, error)
	SetExport(ctx context.Context, id uuid.UUID, key, url string) error
	Delete(ctx context.Context, id uuid.UUID) (*models.GalleryAd, error)
}

// Gallery groups the saved ad endpoints.
type Gallery struct {
	store    GalleryStore
	objects  ObjectStore
	renderer *render.Renderer
	brand    *brand.Context
	policy   placeholder.Policy
	now      func() time.Time
}

// NewGallery creates the gallery handler group. objects may be nil when
// object storage is not configured; exports then return 503. policy decides
// how previews treat placeholders without a field value.
func NewGallery(s GalleryStore, objects ObjectStore, rn *render.Renderer, b *brand.Context, policy placeholder.Policy) *Gallery {
	return &Gallery{store: s, objects: objects, renderer: rn, brand: b, policy: policy, now: time.Now}
}

// List returns saved ads, newest first.
func (g *Gallery) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.GalleryFilter{
		Channel: strings.TrimSpace(q.Get("channel")),
		Flavor:  strings.TrimSpace(q.Get("flavor")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit.")
			return
		}
		f.Limit = n
	}

	items, err := g.store.List(r.Context(), f)
	if err != nil {
		writeFailure(w, "list gallery", err)
		return
	}
	if items == nil {
		items = []models.GalleryAd{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ads": items})
}

// galleryInput is the body of a gallery save.
type galleryInput struct {
	sizeInput
	Name       string        `json:"name"`
	HTML       string        `json:"html"`
	Fields     models.Fields `json:"fields"`
	Flavor     string        `json:"flavor"`
	Channel    string        `json:"channel"`
	Tags       []string      `json:"tags"`
	TemplateID string        `json:"templateId"`
	models.Colors
}

// Create saves a generated ad.
func (g *Gallery) Create(w http.ResponseWriter, r *http.Request) {
	var in galleryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateGalleryAd(in.Name, in.HTML, in.Tags); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	width, height := in.resolve()
	if width <= 0 || height <= 0 {
		writeError(w, http.StatusBadRequest, "Ad width and height are required.")
		return
	}

	fields := in.Fields.Clone()
	if fields == nil {
		fields = models.Fields{}
	}
	if missing := placeholder.Fill(in.HTML, fields); len(missing) > 0 {
		slog.Warn("saved ad had placeholders without fields", "fields", missing)
	}

	created, err := g.store.Create(r.Context(), &models.GalleryAd{
		Name:       strings.TrimSpace(in.Name),
		Width:      width,
		Height:     height,
		HTML:       in.HTML,
		Fields:     fields,
		Colors:     in.Colors,
		Flavor:     optional(in.Flavor),
		Channel:    optional(in.Channel),
		Tags:       in.Tags,
		TemplateID: optional(in.TemplateID),
	})
	if err != nil {
		writeFailure(w, "save gallery ad", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ad": created})
}

// find loads the ad named by the {id} parameter. It writes the error
// response itself and returns nil when the ad cannot be served.
func (g *Gallery) find(w http.ResponseWriter, r *http.Request) *models.GalleryAd {
	id, ok := pathID(w, r)
	if !ok {
		return nil
	}
	ad, err := g.store.FindByID(r.Context(), id)
	if err != nil {
		writeFailure(w, "find gallery ad", err)
		return nil
	}
	if ad == nil {
		writeError(w, http.StatusNotFound, "Ad not found.")
		return nil
	}
	return ad
}

// Get returns one saved ad.
func (g *Gallery) Get(w http.ResponseWriter, r *http.Request) {
	if ad := g.find(w, r); ad != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ad": ad})
	}
}

// Update changes a saved ad. Colors use the same flat keys as a save and
// are merged onto the stored ones. Changing the content drops its export.
func (g *Gallery) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Name       *string       `json:"name"`
		HTML       *string       `json:"html"`
		Fields     models.Fields `json:"fields"`
		Background *string       `json:"backgroundColor"`
		Text       *string       `json:"textColor"`
		Accent     *string       `json:"accentColor"`
		Tags       []string      `json:"tags"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	colorsChanged := in.Background != nil || in.Text != nil || in.Accent != nil
	if in.Name == nil && in.HTML == nil && in.Fields == nil && !colorsChanged && in.Tags == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update.")
		return
	}
	if in.Name != nil {
		if msg := checkLen("Name", *in.Name, maxNameLen); msg != "" || trimmed(in.Name) == "" {
			writeError(w, http.StatusBadRequest, "Name must be 1 to 200 characters.")
			return
		}
		in.Name = optional(*in.Name)
	}
	if in.HTML != nil {
		if msg := checkLen("HTML", *in.HTML, maxHTMLLen); msg != "" || trimmed(in.HTML) == "" {
			writeError(w, http.StatusBadRequest, "HTML must not be empty or too long.")
			return
		}
	}
	if msg := validateTags(in.Tags); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	u := store.GalleryUpdate{Name: in.Name, HTML: in.HTML, Tags: in.Tags}

	// Content changes are resolved against the stored ad.
	var oldExport *string
	if in.HTML != nil || in.Fields != nil || colorsChanged {
		prev, err := g.store.FindByID(r.Context(), id)
		if err != nil {
			writeFailure(w, "load gallery ad", err)
			return
		}
		if prev == nil {
			writeError(w, http.StatusNotFound, "Ad not found.")
			return
		}
		oldExport = prev.ExportKey

		if in.HTML != nil || in.Fields != nil {
			markup := prev.HTML
			if in.HTML != nil {
				markup = *in.HTML
			}
			fields := in.Fields.Clone()
			if fields == nil {
				fields = prev.Fields.Clone()
			}
			if fields == nil {
				fields = models.Fields{}
			}
			if missing := placeholder.Fill(markup, fields); len(missing) > 0 {
				slog.Warn("updated ad had placeholders without fields", "id", id, "fields", missing)
			}
			u.Fields = fields
		}
		if colorsChanged {
			colors := models.Colors{
				Background: trimmed(in.Background),
				Text:       trimmed(in.Text),
				Accent:     trimmed(in.Accent),
			}.Merge(prev.Colors)
			u.Colors = &colors
		}
	}

	updated, err := g.store.Update(r.Context(), id, u)
	if err != nil {
		writeFailure(w, "update gallery ad", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Ad not found.")
		return
	}
	if oldExport != nil {
		g.removeObject(r.Context(), *oldExport)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ad": updated})
}

// Delete removes a saved ad and, best-effort, its exported image.
func (g *Gallery) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := g.store.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, "delete gallery ad", err)
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "Ad not found.")
		return
	}
	if deleted.ExportKey != nil {
		g.removeObject(r.Context(), *deleted.ExportKey)
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted.ID})
}

// readExport reads the PNG produced by the browser exporter, either as the
// raw request body or as the "file" part of a multipart form.
func readExport(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxExportSize+1024)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxExportSize); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}

// Export stores the PNG rendering of a saved ad and records its URL.
func (g *Gallery) Export(w http.ResponseWriter, r *http.Request) {
	if g.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}
	ad := g.find(w, r)
	if ad == nil {
		return
	}

	data, err := readExport(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Export too large. Maximum size is 25 MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "No export image provided.")
		return
	}
	if !imaging.IsPNG(data) {
		writeError(w, http.StatusBadRequest, "Export must be a PNG image.")
		return
	}

	ctx := r.Context()
	key := storage.ExportKey(ad.ID, slug.FileStem(ad.Name), g.now())
	url, err := g.objects.Upload(ctx, key, "image/png", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Error("export upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload export.")
		return
	}
	if err := g.store.SetExport(ctx, ad.ID, key, url); err != nil {
		g.removeObject(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Ad not found.")
			return
		}
		writeFailure(w, "set export", err)
		return
	}
	if ad.ExportKey != nil && *ad.ExportKey != key {
		g.removeObject(ctx, *ad.ExportKey)
	}
	writeJSON(w, http.StatusOK, map[string]any{"exportUrl": url, "exportKey": key})
}

// Preview serves the saved ad as a standalone HTML document with its
// placeholders substituted.
func (g *Gallery) Preview(w http.ResponseWriter, r *http.Request) {
	ad := g.find(w, r)
	if ad == nil {
		return
	}

	markup, err := placeholder.RenderWith(ad.HTML, ad.Fields, g.policy)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var font string
	if g.brand != nil && g.brand.Fonts.Secondary != "" {
		font = g.brand.Fonts.Secondary + ", sans-serif"
	}
	g.renderer.Preview(w, &render.Preview{
		ID:         ad.ID,
		Title:      ad.Name,
		Width:      ad.Width,
		Height:     ad.Height,
		Background: ad.Colors.Background,
		FontFamily: font,
		Markup:     template.HTML(markup),
	})
}

func (g *Gallery) removeObject(ctx context.Context, key string) {
	if g.objects == nil {
		return
	}
	if err := g.objects.Delete(ctx, key); err != nil {
		slog.Warn("gallery object delete failed", "error", err, "key", key)
	}
}
