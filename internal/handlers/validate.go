// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"adstudio/internal/models"
)

// Validation limits for user input.
const (
	maxDescriptionLen = 4_000
	maxNotesLen       = 4_000
	maxInstructionLen = 2_000
	maxToneLen        = 200
	maxNameLen        = 200
	maxHTMLLen        = 500_000
	maxTags           = 20
	maxTagLen         = 50
	maxAssetRefs      = 10
)

// checkLen returns an error message when s exceeds max runes.
func checkLen(label, s string, max int) string {
	if utf8.RuneCountInString(s) > max {
		return fmt.Sprintf("%s is too long (max %d characters).", label, max)
	}
	return ""
}

// validateBrief checks the free-text parts of a generation request and
// returns the first error found.
func validateBrief(description, notes string) string {
	if msg := checkLen("Description", description, maxDescriptionLen); msg != "" {
		return msg
	}
	return checkLen("Notes", notes, maxNotesLen)
}

// validateGalleryAd checks a gallery snapshot before it is saved.
func validateGalleryAd(name, markup string, tags []string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if msg := checkLen("Name", name, maxNameLen); msg != "" {
		return msg
	}
	if strings.TrimSpace(markup) == "" {
		return "HTML is required."
	}
	if msg := checkLen("HTML", markup, maxHTMLLen); msg != "" {
		return msg
	}
	return validateTags(tags)
}

func validateTags(tags []string) string {
	if len(tags) > maxTags {
		return fmt.Sprintf("Too many tags (max %d).", maxTags)
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return "Tags must not be empty."
		}
		if msg := checkLen("Tag", t, maxTagLen); msg != "" {
			return msg
		}
	}
	return ""
}

// validateAssetMeta checks asset metadata from an upload or an update.
func validateAssetMeta(name, category string) string {
	if msg := checkLen("Name", name, maxNameLen); msg != "" {
		return msg
	}
	if category != "" && !models.IsAssetCategory(category) {
		return fmt.Sprintf("Unknown category %q.", category)
	}
	return ""
}
