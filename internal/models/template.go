// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FieldType is the kind of value an editable template field takes.
type FieldType string

const (
	FieldText  FieldType = "text"
	FieldImage FieldType = "image"
	FieldColor FieldType = "color"
)

// EditableField declares one modifiable element of a render template.
// Property names the element property to set when it is not the element's
// main value (e.g. "fill_color" for shapes).
type EditableField struct {
	Type     FieldType `json:"type"`
	Property string    `json:"property,omitempty"`
	Default  any       `json:"default,omitempty"`
}

// RenderTemplate mirrors a template owned by the external rendering
// service. Rows are written only by catalog sync.
type RenderTemplate struct {
	ID             uuid.UUID                `json:"id"`
	ExternalID     string                   `json:"external_id"`
	Name           string                   `json:"name"`
	Description    *string                  `json:"description,omitempty"`
	Category       string                   `json:"category"`
	Width          int                      `json:"width"`
	Height         int                      `json:"height"`
	Tags           []string                 `json:"tags"`
	EditableFields map[string]EditableField `json:"editable_fields"`
	PreviewURL     *string                  `json:"preview_url,omitempty"`
	IsActive       bool                     `json:"is_active"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// FieldNames returns the editable field names in sorted order.
func (t *RenderTemplate) FieldNames() []string {
	names := make([]string, 0, len(t.EditableFields))
	for name := range t.EditableFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateFilter narrows a catalog listing. Zero values do not filter.
type TemplateFilter struct {
	Category string
	Width    int
	Height   int
}
