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

	"adstudio/internal/models"
)

// TemplateStore handles the mirrored render template catalog.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, external_id, name, description, category, width, height,
	tags, editable_fields, preview_url, is_active, created_at, updated_at`

func scanTemplate(scanner interface{ Scan(...any) error }) (*models.RenderTemplate, error) {
	var (
		t            models.RenderTemplate
		tags, fields []byte
	)
	err := scanner.Scan(
		&t.ID, &t.ExternalID, &t.Name, &t.Description, &t.Category, &t.Width, &t.Height,
		&tags, &fields, &t.PreviewURL, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := jsonScan(tags, &t.Tags); err != nil {
		return nil, err
	}
	if err := jsonScan(fields, &t.EditableFields); err != nil {
		return nil, err
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.EditableFields == nil {
		t.EditableFields = map[string]models.EditableField{}
	}
	return &t, nil
}

// ListTemplates returns active templates matching f, ordered by category
// and name.
func (s *TemplateStore) ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.RenderTemplate, error) {
	where := []string{"is_active"}
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Width > 0 {
		args = append(args, f.Width)
		where = append(where, fmt.Sprintf("width = $%d", len(args)))
	}
	if f.Height > 0 {
		args = append(args, f.Height)
		where = append(where, fmt.Sprintf("height = $%d", len(args)))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM render_templates
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY category, name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []models.RenderTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// FindByExternalID retrieves a template by the rendering service's id.
// It returns nil, nil when absent.
func (s *TemplateStore) FindByExternalID(ctx context.Context, externalID string) (*models.RenderTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM render_templates WHERE external_id = $1`, externalID)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by external id: %w", err)
	}
	return t, nil
}

// Upsert inserts a template or updates the row with the same external id.
// Upserted templates are always active.
func (s *TemplateStore) Upsert(ctx context.Context, t *models.RenderTemplate) (*models.RenderTemplate, error) {
	tags, err := jsonArg(t.Tags, "[]")
	if err != nil {
		return nil, err
	}
	fields, err := jsonArg(t.EditableFields, "{}")
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO render_templates (external_id, name, description, category,
			width, height, tags, editable_fields, preview_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, TRUE)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			tags = EXCLUDED.tags,
			editable_fields = EXCLUDED.editable_fields,
			preview_url = EXCLUDED.preview_url,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING `+templateColumns,
		t.ExternalID, t.Name, t.Description, t.Category,
		t.Width, t.Height, tags, fields, t.PreviewURL,
	)
	saved, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("upsert template %s: %w", t.ExternalID, err)
	}
	return saved, nil
}

// Count returns the number of active templates.
func (s *TemplateStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM render_templates WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}
