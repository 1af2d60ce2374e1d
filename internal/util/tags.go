// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "strings"

// SplitTags splits a comma-joined tag string, trims whitespace around each
// entry and drops empty entries. Order of first appearance is kept and
// duplicates are removed.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	seen := make(map[string]struct{}, len(parts))
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// JoinTags joins tags into the stored comma-separated form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// NormalizeTags re-joins a raw tag string after splitting and trimming it.
func NormalizeTags(s string) string {
	return JoinTags(SplitTags(s))
}
