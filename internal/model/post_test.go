// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestPostStatusHelpers(t *testing.T) {
	tests := []struct {
		status    string
		published bool
		draft     bool
		scheduled bool
	}{
		{PostStatusDraft, false, true, false},
		{PostStatusScheduled, false, false, true},
		{PostStatusPublished, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			p := &Post{Status: tt.status}
			if p.IsPublished() != tt.published {
				t.Errorf("IsPublished() = %v", p.IsPublished())
			}
			if p.IsDraft() != tt.draft {
				t.Errorf("IsDraft() = %v", p.IsDraft())
			}
			if p.IsScheduled() != tt.scheduled {
				t.Errorf("IsScheduled() = %v", p.IsScheduled())
			}
			if !IsValidPostStatus(tt.status) {
				t.Errorf("IsValidPostStatus(%q) = false", tt.status)
			}
		})
	}

	if IsValidPostStatus("archived") {
		t.Error("IsValidPostStatus(archived) = true")
	}
}

func TestPostIsDue(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		post Post
		want bool
	}{
		{"scheduled past", Post{Status: PostStatusScheduled, ScheduledFor: &past}, true},
		{"scheduled now", Post{Status: PostStatusScheduled, ScheduledFor: &now}, true},
		{"scheduled future", Post{Status: PostStatusScheduled, ScheduledFor: &future}, false},
		{"scheduled without time", Post{Status: PostStatusScheduled}, false},
		{"published past", Post{Status: PostStatusPublished, ScheduledFor: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.IsDue(now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostTagList(t *testing.T) {
	p := &Post{Tags: "quantum, ai"}
	got := p.TagList()
	if len(got) != 2 || got[0] != "quantum" || got[1] != "ai" {
		t.Errorf("TagList() = %v", got)
	}
}
