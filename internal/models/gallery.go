// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GalleryAd is a saved snapshot of a generated ad.
type GalleryAd struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	HTML       string    `json:"html"`
	Fields     Fields    `json:"fields"`
	Colors     Colors    `json:"colors"`
	Flavor     *string   `json:"flavor,omitempty"`
	Channel    *string   `json:"channel,omitempty"`
	Tags       []string  `json:"tags"`
	TemplateID *string   `json:"template_id,omitempty"`
	ExportKey  *string   `json:"export_key,omitempty"`
	ExportURL  *string   `json:"export_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Size returns the "WxH" label for the ad.
func (g *GalleryAd) Size() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// Ad returns the generated ad held by the snapshot.
func (g *GalleryAd) Ad() GeneratedAd {
	return GeneratedAd{HTML: g.HTML, Fields: g.Fields.Clone(), Colors: g.Colors}
}

// GalleryFilter narrows a gallery listing. Empty values do not filter.
type GalleryFilter struct {
	Channel string
	Flavor  string
	Limit   int
}
