// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package placeholder substitutes field values into ad markup. A placeholder
// is a literal {{name}} marker; names are matched exactly, with no spaces
// or expressions, so this is plain string replacement rather than a
// template language.
package placeholder

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnresolved is returned by RenderWith under PolicyFail when the markup
// references placeholders that have no field entry.
var ErrUnresolved = errors.New("placeholder: unresolved placeholders")

// Policy decides what happens to placeholders that have no field entry.
type Policy string

const (
	PolicyKeep  Policy = "keep"  // leave {{name}} in the output
	PolicyBlank Policy = "blank" // remove the marker
	PolicyFail  Policy = "fail"  // return ErrUnresolved
)

// ParsePolicy maps a config value to a Policy. Unknown values are an error.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyKeep, PolicyBlank, PolicyFail:
		return p, nil
	case "":
		return PolicyBlank, nil
	default:
		return "", fmt.Errorf("placeholder: unknown policy %q", s)
	}
}

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.-]+)\}\}`)

// Marker returns the placeholder marker for a field name.
func Marker(name string) string {
	return "{{" + name + "}}"
}

// Render replaces every occurrence of {{key}} for every key in fields.
// Placeholders without a matching key are left verbatim.
func Render(markup string, fields map[string]string) string {
	if len(fields) == 0 || !strings.Contains(markup, "{{") {
		return markup
	}
	pairs := make([]string, 0, len(fields)*2)
	for _, key := range sortedKeys(fields) {
		pairs = append(pairs, Marker(key), fields[key])
	}
	// Replacer scans left to right and never rescans replaced text, so a
	// value that itself contains {{...}} is not expanded again.
	return strings.NewReplacer(pairs...).Replace(markup)
}

// RenderWith renders and then applies policy to what is left unresolved.
func RenderWith(markup string, fields map[string]string, policy Policy) (string, error) {
	missing := Missing(markup, fields)
	out := Render(markup, fields)
	if len(missing) == 0 {
		return out, nil
	}

	switch policy {
	case PolicyFail:
		return "", fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(missing, ", "))
	case PolicyBlank:
		blanks := make(map[string]string, len(missing))
		for _, name := range missing {
			blanks[name] = ""
		}
		return Render(out, blanks), nil
	default:
		return out, nil
	}
}

// Tokens returns the placeholder names in markup, in order of first
// appearance, without duplicates.
func Tokens(markup string) []string {
	matches := tokenPattern.FindAllStringSubmatch(markup, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Missing returns the placeholder names in markup that have no entry in fields.
func Missing(markup string, fields map[string]string) []string {
	var missing []string
	for _, name := range Tokens(markup) {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Fill adds an empty entry to fields for every placeholder that lacks one
// and returns the names it added. fields must be non-nil.
func Fill(markup string, fields map[string]string) []string {
	missing := Missing(markup, fields)
	for _, name := range missing {
		fields[name] = ""
	}
	return missing
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Longest first keeps the replacer deterministic when one key is a
	// prefix of another.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
