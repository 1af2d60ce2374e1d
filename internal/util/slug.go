// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides helpers shared by the blog services: email and tag
// parsing, slug generation and sql null-type conversions.
package util

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TagSlug returns the key used to match a tag exactly. Accents are dropped,
// non-Latin scripts are transliterated, case is folded and whitespace runs
// become a single hyphen. Punctuation is kept, so "C++" and "C#" stay apart.
// A tag that transliterates to nothing falls back to its lowercased name.
func TagSlug(name string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	if key := slugWords(unidecode.Unidecode(folded)); key != "" {
		return key
	}
	return slugWords(folded)
}

func slugWords(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
