// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"strings"

	"adstudio/internal/models"
)

// InferEditableFields walks a template source tree and declares a field for
// every named element: text elements take text, image and video elements
// take a source URL, and shapes take a fill color.
func InferEditableFields(source any) map[string]models.EditableField {
	fields := map[string]models.EditableField{}
	walkElements(source, func(el map[string]any) {
		name, _ := el["name"].(string)
		if name == "" {
			return
		}
		typ, _ := el["type"].(string)
		text, hasText := el["text"]
		src, hasSource := el["source"]
		fill, hasFill := el["fill_color"]

		switch {
		case typ == "text" || hasText:
			fields[name] = models.EditableField{Type: models.FieldText, Default: stringOr(text, "")}
		case typ == "image" || typ == "video" || hasSource:
			fields[name] = models.EditableField{Type: models.FieldImage, Default: stringOr(src, nil)}
		case typ == "shape" || hasFill:
			fields[name] = models.EditableField{Type: models.FieldColor, Property: "fill_color", Default: stringOr(fill, nil)}
		}
	})
	return fields
}

// walkElements visits node and every nested element.
func walkElements(node any, visit func(map[string]any)) {
	switch n := node.(type) {
	case []any:
		for _, child := range n {
			walkElements(child, visit)
		}
	case map[string]any:
		visit(n)
		if children, ok := n["elements"]; ok {
			walkElements(children, visit)
		}
	}
}

// stringOr returns v when it is a non-empty string, else fallback.
func stringOr(v any, fallback any) any {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// categoryRules map keywords to categories, first match wins.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{"hero-product", []string{"hero", "product"}},
	{"lifestyle-overlay", []string{"lifestyle", "overlay"}},
	{"split-layout", []string{"split"}},
	{"bold-typography", []string{"bold", "typo"}},
	{"grid", []string{"grid"}},
	{"collage", []string{"collage"}},
	{"promo", []string{"promo", "sale"}},
}

// InferCategory derives a layout category from a template's name and tags.
func InferCategory(name string, tags []string) string {
	combined := strings.ToLower(name + " " + strings.Join(tags, " "))
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(combined, kw) {
				return rule.category
			}
		}
	}
	return "other"
}
