// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Asset categories. Uploads without a category go to AssetCategoryOther.
const (
	AssetCategoryProduct   = "product"
	AssetCategoryLogo      = "logo"
	AssetCategoryLifestyle = "lifestyle"
	AssetCategoryPackaging = "packaging"
	AssetCategoryOther     = "other"
)

// AssetCategories lists the accepted category tags.
var AssetCategories = []string{
	AssetCategoryProduct,
	AssetCategoryLogo,
	AssetCategoryLifestyle,
	AssetCategoryPackaging,
	AssetCategoryOther,
}

// IsAssetCategory reports whether c is an accepted category tag.
func IsAssetCategory(c string) bool {
	for _, known := range AssetCategories {
		if c == known {
			return true
		}
	}
	return false
}

// BrandAsset is an uploaded brand image. Metadata lives in PostgreSQL;
// the file and its thumbnail live in the public bucket.
type BrandAsset struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Flavor      *string   `json:"flavor,omitempty"`
	SKU         *string   `json:"sku,omitempty"`
	StorageKey  string    `json:"storage_key"`
	URL         string    `json:"url"`
	ThumbKey    *string   `json:"thumb_key,omitempty"`
	ThumbURL    *string   `json:"thumb_url,omitempty"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ref returns the reference passed to prompts.
func (a *BrandAsset) Ref() AssetRef {
	return AssetRef{ID: a.ID, Name: a.Name, URL: a.URL}
}

// HumanSize returns a human-readable file size string.
func (a *BrandAsset) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case a.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(a.SizeBytes)/float64(mb))
	case a.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(a.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", a.SizeBytes)
	}
}
