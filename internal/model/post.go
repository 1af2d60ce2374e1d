// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"github.com/olegiv/oblog/internal/util"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

// ValidPostStatuses lists every post status.
var ValidPostStatuses = []string{PostStatusDraft, PostStatusScheduled, PostStatusPublished}

// IsValidPostStatus reports whether status is a known post status.
func IsValidPostStatus(status string) bool {
	for _, s := range ValidPostStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Post represents a blog post. Tags holds the comma-joined tag list.
type Post struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AuthorID      int64      `json:"author_id"`
	Category      string     `json:"category"`
	Tags          string     `json:"tags"`
	FeaturedImage *string    `json:"featured_image,omitempty"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsDraft returns true if the post is a draft.
func (p *Post) IsDraft() bool {
	return p.Status == PostStatusDraft
}

// IsScheduled returns true if the post waits for the scheduler.
func (p *Post) IsScheduled() bool {
	return p.Status == PostStatusScheduled
}

// IsDue reports whether a scheduled post should be published at now.
func (p *Post) IsDue(now time.Time) bool {
	return p.IsScheduled() && p.ScheduledFor != nil && !p.ScheduledFor.After(now)
}

// TagList returns the post's tags split and trimmed.
func (p *Post) TagList() []string {
	return util.SplitTags(p.Tags)
}

// PostWithAuthor is a post joined with its author's public profile.
type PostWithAuthor struct {
	Post
	AuthorName  string  `json:"author_name"`
	AuthorBio   *string `json:"author_bio,omitempty"`
	AuthorImage *string `json:"author_image,omitempty"`
}
