// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render turns stored post bodies into display-ready output:
// sanitized HTML, plain-text excerpts and formatted dates.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// DefaultExcerptLength is the excerpt length used by list views.
const DefaultExcerptLength = 150

// dateTimeLayout renders e.g. "March 05, 2026 at 02:30 PM".
const dateTimeLayout = "January 02, 2006 at 03:04 PM"

// Renderer converts markdown post bodies to safe HTML.
// It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strip  *bluemonday.Policy
}

// New creates a Renderer with GitHub-flavoured markdown and the UGC
// sanitization policy.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
		strip:  bluemonday.StrictPolicy(),
	}
}

// HTML renders markdown source to sanitized HTML.
func (r *Renderer) HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// PlainText renders markdown and strips every tag, leaving readable text
// with whitespace collapsed.
func (r *Renderer) PlainText(source string) string {
	var buf bytes.Buffer
	text := source
	if err := r.md.Convert([]byte(source), &buf); err == nil {
		text = buf.String()
	}
	text = html.UnescapeString(r.strip.Sanitize(text))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns a plain-text preview of markdown source at most maxLen
// characters long, plus an ellipsis when cut.
func (r *Renderer) Excerpt(source string, maxLen int) string {
	return Truncate(r.PlainText(source), maxLen)
}

// Truncate shortens text to maxLen characters and appends "...". When a
// space falls within the last fifth of the cut, the text is cut there so
// words stay whole. Lengths count runes, not bytes.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultExcerptLength
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	runes := []rune(text)[:maxLen]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i >= 0 && utf8.RuneCountInString(cut[:i]) > maxLen*4/5 {
		cut = cut[:i]
	}
	return cut + "..."
}

// FormatDateTime formats t for display in its own location. A zero time
// yields an empty string.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}
