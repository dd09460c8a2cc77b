// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"adstudio/internal/imaging"
	"adstudio/internal/models"
	"adstudio/internal/storage"
	"adstudio/internal/store"
)

// maxUploadSize is the maximum allowed asset upload size (20 MB).
const maxUploadSize = 20 << 20

// ObjectStore stores uploaded files.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// AssetStore persists brand asset metadata.
type AssetStore interface {
	AssetLookup
	Create(ctx context.Context, a *models.BrandAsset) (*models.BrandAsset, error)
	List(ctx context.Context, f store.AssetFilter) ([]models.BrandAsset, error)
	Update(ctx context.Context, id uuid.UUID, u store.AssetUpdate) (*models.BrandAsset, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.BrandAsset, error)
}

// Assets groups the brand asset library endpoints.
type Assets struct {
	store   AssetStore
	objects ObjectStore
	now     func() time.Time
}

// NewAssets creates the asset handler group. objects may be nil when object
// storage is not configured; uploads then return 503.
func NewAssets(s AssetStore, objects ObjectStore) *Assets {
	return &Assets{store: s, objects: objects, now: time.Now}
}

// List returns active assets, optionally filtered by category and flavor.
func (a *Assets) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AssetFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Flavor:   strings.TrimSpace(q.Get("flavor")),
	}
	if f.Category != "" && !models.IsAssetCategory(f.Category) {
		writeError(w, http.StatusBadRequest, "Unknown category.")
		return
	}

	items, err := a.store.List(r.Context(), f)
	if err != nil {
		writeFailure(w, "list assets", err)
		return
	}
	if items == nil {
		items = []models.BrandAsset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": items})
}

// Upload stores a multipart image upload and its thumbnail.
func (a *Assets) Upload(w http.ResponseWriter, r *http.Request) {
	if a.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 20 MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read file.")
		return
	}
	info, err := imaging.Inspect(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			writeError(w, http.StatusBadRequest, "File must be a PNG, JPEG, GIF or WebP image.")
			return
		}
		writeError(w, http.StatusBadRequest, "File is not a readable image.")
		return
	}

	category := strings.TrimSpace(r.FormValue("category"))
	if category == "" {
		category = models.AssetCategoryOther
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	if name == "" {
		name = "Untitled asset"
	}
	if msg := validateAssetMeta(name, category); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	key := storage.AssetKey(category, uuid.New(), info.Ext, a.now())
	url, err := a.objects.Upload(ctx, key, info.ContentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Error("asset upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload file.")
		return
	}

	asset := &models.BrandAsset{
		Category:    category,
		Name:        name,
		Flavor:      optional(r.FormValue("flavor")),
		SKU:         optional(r.FormValue("sku")),
		StorageKey:  key,
		URL:         url,
		ContentType: info.ContentType,
		SizeBytes:   int64(len(data)),
		Width:       info.Width,
		Height:      info.Height,
	}

	thumb, err := imaging.Thumbnail(data, imaging.ThumbWidth)
	if err != nil {
		slog.Warn("thumbnail generation failed", "error", err, "key", key)
	} else if thumb != nil {
		tk := storage.ThumbKey(key)
		tu, err := a.objects.Upload(ctx, tk, "image/png", bytes.NewReader(thumb), int64(len(thumb)))
		if err != nil {
			slog.Warn("thumbnail upload failed", "error", err, "key", tk)
		} else {
			asset.ThumbKey, asset.ThumbURL = &tk, &tu
		}
	}

	created, err := a.store.Create(ctx, asset)
	if err != nil {
		slog.Error("asset insert failed", "error", err, "key", key)
		a.removeObjects(ctx, asset)
		writeError(w, http.StatusInternalServerError, "Failed to save asset.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"asset": created})
}

// Update renames, recategorizes or deactivates an asset.
func (a *Assets) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Name     *string `json:"name"`
		Category *string `json:"category"`
		Flavor   *string `json:"flavor"`
		SKU      *string `json:"sku"`
		IsActive *bool   `json:"isActive"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Name == nil && in.Category == nil && in.Flavor == nil && in.SKU == nil && in.IsActive == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update.")
		return
	}
	if in.Name != nil && trimmed(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name must not be empty.")
		return
	}
	if msg := validateAssetMeta(trimmed(in.Name), trimmed(in.Category)); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	u := store.AssetUpdate{Flavor: in.Flavor, SKU: in.SKU, IsActive: in.IsActive}
	if in.Name != nil {
		u.Name = optional(*in.Name)
	}
	if in.Category != nil {
		u.Category = optional(*in.Category)
	}
	updated, err := a.store.Update(r.Context(), id, u)
	if err != nil {
		writeFailure(w, "update asset", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Asset not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": updated})
}

// Delete removes an asset row, then its stored objects. Object removal is
// best-effort.
func (a *Assets) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := a.store.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, "delete asset", err)
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "Asset not found.")
		return
	}
	a.removeObjects(r.Context(), deleted)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted.ID})
}

// removeObjects deletes an asset's file and thumbnail, logging failures.
func (a *Assets) removeObjects(ctx context.Context, asset *models.BrandAsset) {
	if a.objects == nil {
		return
	}
	keys := []string{asset.StorageKey}
	if asset.ThumbKey != nil {
		keys = append(keys, *asset.ThumbKey)
	}
	for _, k := range keys {
		if err := a.objects.Delete(ctx, k); err != nil {
			slog.Warn("asset object delete failed", "error", err, "key", k)
		}
	}
}
