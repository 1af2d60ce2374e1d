// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Stats holds the dashboard counters.
type Stats struct {
	TotalPosts     int64            `json:"total_posts"`
	PostsByStatus  map[string]int64 `json:"posts_by_status"`
	TotalUsers     int64            `json:"total_users"`
	TotalComments  int64            `json:"total_comments"`
	Subscribers    int64            `json:"subscribers"`
	UnreadMessages int64            `json:"unread_messages"`
}
