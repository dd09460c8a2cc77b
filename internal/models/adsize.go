// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// AdSize is a named canvas preset.
type AdSize struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AdSizes lists the presets offered to clients. "custom" carries no fixed
// dimensions.
var AdSizes = []AdSize{
	{ID: "instagram-square", Label: "Instagram Square", Width: 1080, Height: 1080},
	{ID: "instagram-story", Label: "Instagram Story", Width: 1080, Height: 1920},
	{ID: "facebook-feed", Label: "Facebook Feed", Width: 1200, Height: 628},
	{ID: "facebook-story", Label: "Facebook Story", Width: 1080, Height: 1920},
	{ID: "pinterest", Label: "Pinterest Pin", Width: 1000, Height: 1500},
	{ID: "custom", Label: "Custom Size"},
}

// FindAdSize returns the preset with the given id.
func FindAdSize(id string) (AdSize, bool) {
	for _, s := range AdSizes {
		if s.ID == id {
			return s, true
		}
	}
	return AdSize{}, false
}
