// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"strings"
	"testing"
)

func TestFileStem(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"two words", "Summer Promo", "summer-promo"},
		{"digits kept", "Back to School 2026", "back-to-school-2026"},
		{"punctuation collapses", "Buy 1, Get 1 -- FREE!!", "buy-1-get-1-free"},
		{"apostrophe dropped", "Mom's Favorite", "moms-favorite"},
		{"curly apostrophe dropped", "Mom’s Favorite", "moms-favorite"},
		{"romanian diacritics", "Înghețată de căpșuni", "inghetata-de-capsuni"},
		{"cedilla variants", "Şoseaua Ţării", "soseaua-tarii"},
		{"western accents", "Crème Brûlée Café", "creme-brulee-cafe"},
		{"eszett", "Straße", "strasse"},
		{"leading and trailing noise", "  --ChiChi--  ", "chichi"},
		{"slashes and pipes", "Instagram/Story | Q3", "instagram-story-q3"},
		{"emoji removed", "Hot deal 🔥 today", "hot-deal-today"},
		{"non latin script removed", "Акция Spring", "spring"},
		{"only symbols", "!!! ??? ***", ""},
		{"empty", "", ""},
		{"tabs and newlines", "line\tone\nline two", "line-one-line-two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileStem(tt.input); got != tt.want {
				t.Errorf("FileStem(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFileStemLength(t *testing.T) {
	t.Run("cut on word boundary", func(t *testing.T) {
		in := strings.Repeat("berry ", 20)
		got := FileStem(in)
		if len(got) > MaxLen {
			t.Fatalf("len = %d, want <= %d", len(got), MaxLen)
		}
		if strings.HasSuffix(got, "-") || !strings.HasSuffix(got, "berry") {
			t.Errorf("got %q, want whole words", got)
		}
	})

	t.Run("single long word is hard cut", func(t *testing.T) {
		got := FileStem(strings.Repeat("a", 100))
		if got != strings.Repeat("a", MaxLen) {
			t.Errorf("got %q", got)
		}
	})

	t.Run("short name untouched", func(t *testing.T) {
		if got := FileStem("Mango Tango"); got != "mango-tango" {
			t.Errorf("got %q", got)
		}
	})
}

func TestFileStemIdempotent(t *testing.T) {
	for _, in := range []string{"Summer Promo", "Crème Brûlée", "a--b__c"} {
		once := FileStem(in)
		if twice := FileStem(once); twice != once {
			t.Errorf("FileStem(FileStem(%q)) = %q, want %q", in, twice, once)
		}
	}
}
