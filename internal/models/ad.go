// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Fields maps placeholder names to their literal text.
type Fields map[string]string

// UnmarshalJSON accepts any scalar value. Numbers and booleans are kept in
// their JSON spelling; null becomes an empty string.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Fields, len(raw))
	for k, v := range raw {
		var s string
		switch {
		case bytes.Equal(v, []byte("null")):
		case len(v) > 0 && v[0] == '"':
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
		case len(v) > 0 && (v[0] == '{' || v[0] == '['):
			return fmt.Errorf("field %q: expected a scalar value", k)
		default:
			s = string(v)
			if _, err := strconv.ParseFloat(s, 64); err != nil && s != "true" && s != "false" {
				return fmt.Errorf("field %q: invalid value %s", k, s)
			}
		}
		out[k] = s
	}
	*f = out
	return nil
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Colors is the color record of a generated ad.
type Colors struct {
	Background string `json:"backgroundColor,omitempty"`
	Text       string `json:"textColor,omitempty"`
	Accent     string `json:"accentColor,omitempty"`
}

// Merge returns c with every empty color taken from fallback.
func (c Colors) Merge(fallback Colors) Colors {
	if c.Background == "" {
		c.Background = fallback.Background
	}
	if c.Text == "" {
		c.Text = fallback.Text
	}
	if c.Accent == "" {
		c.Accent = fallback.Accent
	}
	return c
}

// GeneratedAd is ad markup with {{name}} placeholders, the values for those
// placeholders, and the ad's colors.
type GeneratedAd struct {
	HTML   string `json:"html"`
	Fields Fields `json:"fields"`
	Colors
}

// AssetRef points at a brand asset the model may place in the markup.
type AssetRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	URL  string    `json:"url"`
}

// ReferenceImage is an uploaded image attached to a request.
type ReferenceImage struct {
	Data      []byte
	MediaType string
}

// GenerationRequest is the per-action input to the generation pipeline.
type GenerationRequest struct {
	Description string
	Image       *ReferenceImage
	Width       int
	Height      int
	Flavor      string
	Channel     string
	Notes       string
	Assets      []AssetRef
}

// Improvement is one actionable review finding.
type Improvement struct {
	Issue    string `json:"issue"`
	Fix      string `json:"fix,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// ReviewReport is the scored critique of a rendered ad. Fixed, HTML, Fields
// and the colors are only set when the reviewer returned a replacement.
type ReviewReport struct {
	Score        float64            `json:"score"`
	Verdict      string             `json:"verdict"`
	Strengths    []string           `json:"strengths,omitempty"`
	Improvements []Improvement      `json:"improvements,omitempty"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	Tips         []string           `json:"tips,omitempty"`

	Fixed  bool   `json:"fixed"`
	HTML   string `json:"html,omitempty"`
	Fields Fields `json:"fields,omitempty"`
	Colors
}

// Replacement returns the ad carried by the report, if it carries a usable one.
func (r *ReviewReport) Replacement() (GeneratedAd, bool) {
	if r == nil || !r.Fixed || r.HTML == "" || len(r.Fields) == 0 {
		return GeneratedAd{}, false
	}
	return GeneratedAd{HTML: r.HTML, Fields: r.Fields.Clone(), Colors: r.Colors}, true
}

// CopyVariation is one set of ad copy.
type CopyVariation struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline,omitempty"`
	Body        string `json:"body,omitempty"`
	CTA         string `json:"cta,omitempty"`
}

// CopySet is the result of a copy generation request.
type CopySet struct {
	Variations []CopyVariation `json:"variations"`
}

// Analysis describes the structure of a reference ad.
type Analysis struct {
	Layout            map[string]any `json:"layout"`
	TextHierarchy     map[string]any `json:"textHierarchy,omitempty"`
	ColorPalette      map[string]any `json:"colorPalette,omitempty"`
	StyleNotes        string         `json:"styleNotes,omitempty"`
	SuggestedTemplate string         `json:"suggestedTemplate,omitempty"`
	DesignElements    []string       `json:"designElements,omitempty"`
}
