// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package extract turns free-form completion text into structured records.
//
// Parsing runs an ordered list of strategies and the first one that yields
// a JSON object wins: the whole trimmed text, then the interior of a fenced
// code block, then the span from the first '{' to the last '}'. When every
// strategy fails the result is ErrUnparseable; nothing is guessed or
// truncated. Parsed objects are then validated against a JSON Schema for the
// expected variant before being decoded.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnparseable means no strategy produced a JSON object.
	ErrUnparseable = errors.New("extract: unparseable response")

	// ErrInvalid means the object parsed but does not match the schema.
	ErrInvalid = errors.New("extract: invalid response")
)

// Strategy locates a JSON candidate inside completion text.
type Strategy struct {
	Name string
	// Candidates returns the substrings to try, in order.
	Candidates func(text string) []string
}

// Strategies is the fixed parse order.
var Strategies = []Strategy{
	{Name: "direct", Candidates: func(text string) []string { return []string{text} }},
	{Name: "fenced", Candidates: fencedBlocks},
	{Name: "braces", Candidates: braceSpan},
}

// Result is a successfully located JSON object and the strategy that found it.
type Result struct {
	Object   json.RawMessage
	Strategy string
}

// Parse runs Strategies in order and returns the first JSON object found.
func Parse(text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty text", ErrUnparseable)
	}
	for _, s := range Strategies {
		for _, candidate := range s.Candidates(text) {
			if obj, ok := asObject(candidate); ok {
				return Result{Object: obj, Strategy: s.Name}, nil
			}
		}
	}
	return Result{}, fmt.Errorf("%w: no JSON object found", ErrUnparseable)
}

// Into parses text, validates the object against schema and decodes it
// into v. It returns the name of the strategy that matched.
func Into(text string, schema *Schema, v any) (string, error) {
	res, err := Parse(text)
	if err != nil {
		return "", err
	}
	if schema != nil {
		if err := schema.Validate(res.Object); err != nil {
			return res.Strategy, err
		}
	}
	if err := json.Unmarshal(res.Object, v); err != nil {
		return res.Strategy, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return res.Strategy, nil
}

// asObject reports whether s is exactly one JSON object.
func asObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

var fencePattern = regexp.MustCompile("(?s)```[ \t]*(?:json|JSON)?[ \t]*\r?\n?(.*?)```")

// fencedBlocks returns the interior of every fenced code block in order.
func fencedBlocks(text string) []string {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// braceSpan returns the single span from the first '{' to the last '}'.
func braceSpan(text string) []string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	return []string{text[start : end+1]}
}
