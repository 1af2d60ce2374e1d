// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Comment is a reader comment on a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentWithAuthor is a comment joined with the commenter's public profile.
type CommentWithAuthor struct {
	Comment
	Username     string  `json:"username"`
	ProfileImage *string `json:"profile_image,omitempty"`
}
