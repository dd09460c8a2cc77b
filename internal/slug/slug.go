// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns ad names into file-name-safe stems for stored exports.
package slug

import (
	"strings"
	"unicode"
)

// MaxLen caps a stem so object keys stay readable.
const MaxLen = 48

// folds maps common accented Latin letters to ASCII. Anything else outside
// [a-z0-9] becomes a separator.
var folds = strings.NewReplacer(
	"ă", "a", "â", "a", "á", "a", "à", "a", "ä", "a", "ã", "a", "å", "a",
	"î", "i", "í", "i", "ì", "i", "ï", "i",
	"ș", "s", "ş", "s", "ß", "ss",
	"ț", "t", "ţ", "t",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// FileStem lowercases name, folds accents, and joins the remaining
// alphanumeric runs with single hyphens. Apostrophes are dropped so "Mom's"
// stays one word. The result is cut at MaxLen on a word boundary where
// possible and is empty when name has nothing usable.
func FileStem(name string) string {
	s := folds.Replace(strings.ToLower(name))

	var b strings.Builder
	pending := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			pending = true
		}
	}

	out := b.String()
	if len(out) <= MaxLen {
		return out
	}
	out = out[:MaxLen]
	if i := strings.LastIndexByte(out, '-'); i > MaxLen/2 {
		out = out[:i]
	}
	return strings.TrimRight(out, "-")
}
