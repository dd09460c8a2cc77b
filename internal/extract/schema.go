// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema for one response variant.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// NewSchema compiles a JSON Schema document.
func NewSchema(name, source string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustSchema is NewSchema for package-level schemas.
func MustSchema(name, source string) *Schema {
	s, err := NewSchema(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the variant name the schema was compiled under.
func (s *Schema) Name() string { return s.name }

// Validate checks a JSON document against the schema.
func (s *Schema) Validate(doc json.RawMessage) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, s.name, err)
	}
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, s.name, err)
	}
	return nil
}

const colorProp = `{"type": ["string", "null"]}`

// fieldsProp accepts scalar values; numbers and booleans are stringified
// when decoded.
const fieldsProp = `{
	"type": "object",
	"additionalProperties": {"type": ["string", "number", "boolean", "null"]}
}`

// Response variants.
var (
	// GenerationResult: markup plus field values and optional colors.
	GenerationResult = MustSchema("generation_result", `{
		"type": "object",
		"required": ["html", "fields"],
		"properties": {
			"html": {"type": "string", "minLength": 1},
			"fields": `+fieldsProp+`,
			"backgroundColor": `+colorProp+`,
			"textColor": `+colorProp+`,
			"accentColor": `+colorProp+`
		}
	}`)

	// ReviewResult: a scored report, optionally with a replacement ad.
	ReviewResult = MustSchema("review_result", `{
		"type": "object",
		"required": ["score", "verdict"],
		"properties": {
			"score": {"type": "number"},
			"verdict": {"type": "string"},
			"strengths": {"type": "array", "items": {"type": "string"}},
			"improvements": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["issue"],
					"properties": {
						"issue": {"type": "string"},
						"fix": {"type": "string"},
						"priority": {"type": "string"}
					}
				}
			},
			"scores": {"type": "object", "additionalProperties": {"type": "number"}},
			"tips": {"type": "array", "items": {"type": "string"}},
			"fixed": {"type": "boolean"},
			"html": {"type": "string"},
			"fields": `+fieldsProp+`
		}
	}`)

	// SelfReviewResult: the self-review pass only has to say whether it
	// fixed anything.
	SelfReviewResult = MustSchema("self_review_result", `{
		"type": "object",
		"required": ["fixed"],
		"properties": {
			"fixed": {"type": "boolean"},
			"score": {"type": "number"},
			"html": {"type": "string"},
			"fields": `+fieldsProp+`,
			"scores": {"type": "object", "additionalProperties": {"type": "number"}}
		}
	}`)

	// TemplateSelection: a catalog id and its field values.
	TemplateSelection = MustSchema("template_selection", `{
		"type": "object",
		"required": ["templateId", "modifications"],
		"properties": {
			"templateId": {"type": "string", "minLength": 1},
			"templateName": {"type": "string"},
			"reasoning": {"type": "string"},
			"modifications": {"type": "object"}
		}
	}`)

	// CopyResult: ad copy variations.
	CopyResult = MustSchema("copy_result", `{
		"type": "object",
		"required": ["variations"],
		"properties": {
			"variations": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["headline"],
					"properties": {
						"headline": {"type": "string"},
						"subheadline": {"type": "string"},
						"body": {"type": "string"},
						"cta": {"type": "string"}
					}
				}
			}
		}
	}`)

	// AnalysisResult: a structured description of a reference ad.
	AnalysisResult = MustSchema("analysis_result", `{
		"type": "object",
		"required": ["layout"],
		"properties": {
			"layout": {"type": "object"},
			"textHierarchy": {"type": "object"},
			"colorPalette": {"type": "object"},
			"styleNotes": {"type": "string"},
			"suggestedTemplate": {"type": "string"},
			"designElements": {"type": "array", "items": {"type": "string"}}
		}
	}`)
)
