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

// GalleryStore handles saved ad snapshots.
type GalleryStore struct {
	db *sql.DB
}

// NewGalleryStore creates a new GalleryStore with the given database connection.
func NewGalleryStore(db *sql.DB) *GalleryStore {
	return &GalleryStore{db: db}
}

const galleryColumns = `id, name, width, height, html, fields, colors, flavor,
	channel, tags, template_id, export_key, export_url, created_at, updated_at`

func scanGalleryAd(scanner interface{ Scan(...any) error }) (*models.GalleryAd, error) {
	var (
		g                    models.GalleryAd
		fields, colors, tags []byte
	)
	err := scanner.Scan(
		&g.ID, &g.Name, &g.Width, &g.Height, &g.HTML, &fields, &colors, &g.Flavor,
		&g.Channel, &tags, &g.TemplateID, &g.ExportKey, &g.ExportURL, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := jsonScan(fields, &g.Fields); err != nil {
		return nil, err
	}
	if err := jsonScan(colors, &g.Colors); err != nil {
		return nil, err
	}
	if err := jsonScan(tags, &g.Tags); err != nil {
		return nil, err
	}
	if g.Fields == nil {
		g.Fields = models.Fields{}
	}
	if g.Tags == nil {
		g.Tags = []string{}
	}
	return &g, nil
}

// Create saves an ad snapshot and returns it with the generated ID.
func (s *GalleryStore) Create(ctx context.Context, g *models.GalleryAd) (*models.GalleryAd, error) {
	fields, err := jsonArg(g.Fields, "{}")
	if err != nil {
		return nil, err
	}
	colors, err := jsonArg(g.Colors, "{}")
	if err != nil {
		return nil, err
	}
	tags, err := jsonArg(g.Tags, "[]")
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO generated_ads (name, width, height, html, fields, colors,
			flavor, channel, tags, template_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9::jsonb, $10)
		RETURNING `+galleryColumns,
		g.Name, g.Width, g.Height, g.HTML, fields, colors,
		g.Flavor, g.Channel, tags, g.TemplateID,
	)
	created, err := scanGalleryAd(row)
	if err != nil {
		return nil, fmt.Errorf("create gallery ad: %w", err)
	}
	return created, nil
}

// FindByID retrieves a snapshot. It returns nil, nil when absent.
func (s *GalleryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.GalleryAd, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM generated_ads WHERE id = $1`, id)
	g, err := scanGalleryAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find gallery ad by id: %w", err)
	}
	return g, nil
}

// List returns snapshots, newest first.
func (s *GalleryStore) List(ctx context.Context, f models.GalleryFilter) ([]models.GalleryAd, error) {
	var (
		where []string
		args  []any
	)
	if f.Channel != "" {
		args = append(args, f.Channel)
		where = append(where, fmt.Sprintf("channel = $%d", len(args)))
	}
	if f.Flavor != "" {
		args = append(args, f.Flavor)
		where = append(where, fmt.Sprintf("LOWER(flavor) = LOWER($%d)", len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)

	query := `SELECT ` + galleryColumns + ` FROM generated_ads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list gallery ads: %w", err)
	}
	defer rows.Close()

	var items []models.GalleryAd
	for rows.Next() {
		g, err := scanGalleryAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gallery ad: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

// GalleryUpdate holds editable snapshot data. Nil fields are unchanged.
type GalleryUpdate struct {
	Name   *string
	HTML   *string
	Fields models.Fields
	Colors *models.Colors
	Tags   []string
}

// Update applies u and returns the updated snapshot, or nil, nil when absent.
// Changing the markup or fields clears any previous export.
func (s *GalleryStore) Update(ctx context.Context, id uuid.UUID, u GalleryUpdate) (*models.GalleryAd, error) {
	var fields, colors, tags *string
	if u.Fields != nil {
		v, err := jsonArg(u.Fields, "{}")
		if err != nil {
			return nil, err
		}
		fields = &v
	}
	if u.Colors != nil {
		v, err := jsonArg(u.Colors, "{}")
		if err != nil {
			return nil, err
		}
		colors = &v
	}
	if u.Tags != nil {
		v, err := jsonArg(u.Tags, "[]")
		if err != nil {
			return nil, err
		}
		tags = &v
	}
	contentChanged := u.HTML != nil || u.Fields != nil || u.Colors != nil

	row := s.db.QueryRowContext(ctx, `
		UPDATE generated_ads SET
			name = COALESCE($2, name),
			html = COALESCE($3, html),
			fields = COALESCE($4::jsonb, fields),
			colors = COALESCE($5::jsonb, colors),
			tags = COALESCE($6::jsonb, tags),
			export_key = CASE WHEN $7 THEN NULL ELSE export_key END,
			export_url = CASE WHEN $7 THEN NULL ELSE export_url END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+galleryColumns,
		id, u.Name, u.HTML, fields, colors, tags, contentChanged,
	)
	g, err := scanGalleryAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update gallery ad: %w", err)
	}
	return g, nil
}

// SetExport records the stored export image of a snapshot.
func (s *GalleryStore) SetExport(ctx context.Context, id uuid.UUID, key, url string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE generated_ads SET export_key = $2, export_url = $3, updated_at = NOW()
		WHERE id = $1`, id, key, url)
	if err != nil {
		return fmt.Errorf("set gallery export: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a snapshot and returns it so the caller can clean up its
// export. It returns nil, nil when absent.
func (s *GalleryStore) Delete(ctx context.Context, id uuid.UUID) (*models.GalleryAd, error) {
	row := s.db.QueryRowContext(ctx, `DELETE FROM generated_ads WHERE id = $1 RETURNING `+galleryColumns, id)
	g, err := scanGalleryAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete gallery ad: %w", err)
	}
	return g, nil
}
