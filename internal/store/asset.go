// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"adstudio/internal/models"
)

// AssetStore handles brand asset metadata.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore creates a new AssetStore with the given database connection.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// assetColumns lists the columns selected in asset queries.
const assetColumns = `id, category, name, flavor, sku, storage_key, url,
	thumb_key, thumb_url, content_type, size_bytes, width, height,
	is_active, created_at, updated_at`

// scanAsset scans an asset row from the result set.
func scanAsset(scanner interface{ Scan(...any) error }) (*models.BrandAsset, error) {
	var a models.BrandAsset
	err := scanner.Scan(
		&a.ID, &a.Category, &a.Name, &a.Flavor, &a.SKU, &a.StorageKey, &a.URL,
		&a.ThumbKey, &a.ThumbURL, &a.ContentType, &a.SizeBytes, &a.Width, &a.Height,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new asset and returns it with the generated ID.
func (s *AssetStore) Create(ctx context.Context, a *models.BrandAsset) (*models.BrandAsset, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO brand_assets (category, name, flavor, sku, storage_key, url,
			thumb_key, thumb_url, content_type, size_bytes, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+assetColumns,
		a.Category, a.Name, a.Flavor, a.SKU, a.StorageKey, a.URL,
		a.ThumbKey, a.ThumbURL, a.ContentType, a.SizeBytes, a.Width, a.Height,
	)
	created, err := scanAsset(row)
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single asset. It returns nil, nil when absent.
func (s *AssetStore) FindByID(ctx context.Context, id uuid.UUID) (*models.BrandAsset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM brand_assets WHERE id = $1`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find asset by id: %w", err)
	}
	return a, nil
}

// AssetFilter narrows an asset listing. Empty values do not filter.
type AssetFilter struct {
	Category string
	Flavor   string
}

// List returns active assets, newest first.
func (s *AssetStore) List(ctx context.Context, f AssetFilter) ([]models.BrandAsset, error) {
	where := []string{"is_active"}
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Flavor != "" {
		args = append(args, f.Flavor)
		where = append(where, fmt.Sprintf("LOWER(flavor) = LOWER($%d)", len(args)))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM brand_assets
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var items []models.BrandAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// FindByIDs returns the active assets among ids, in no particular order.
func (s *AssetStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.BrandAsset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM brand_assets
		WHERE is_active AND id = ANY($1::uuid[])`, "{"+strings.Join(strs, ",")+"}")
	if err != nil {
		return nil, fmt.Errorf("find assets by ids: %w", err)
	}
	defer rows.Close()

	var items []models.BrandAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// AssetUpdate holds the editable asset metadata. Nil fields are unchanged.
type AssetUpdate struct {
	Name     *string
	Category *string
	Flavor   *string
	SKU      *string
	IsActive *bool
}

// Update applies u and returns the updated asset, or nil, nil when absent.
func (s *AssetStore) Update(ctx context.Context, id uuid.UUID, u AssetUpdate) (*models.BrandAsset, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE brand_assets SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			flavor = COALESCE($4, flavor),
			sku = COALESCE($5, sku),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+assetColumns,
		id, u.Name, u.Category, u.Flavor, u.SKU, u.IsActive,
	)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	return a, nil
}

// Delete removes an asset and returns it so the caller can clean up the
// stored objects. It returns nil, nil when absent.
func (s *AssetStore) Delete(ctx context.Context, id uuid.UUID) (*models.BrandAsset, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM brand_assets WHERE id = $1
		RETURNING `+assetColumns, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete asset: %w", err)
	}
	return a, nil
}

// Count returns the number of active assets.
func (s *AssetStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM brand_assets WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return count, nil
}
