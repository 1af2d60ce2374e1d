// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

func (q *Queries) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

const countAllPosts = `SELECT COUNT(*) FROM posts`

func (q *Queries) CountAllPosts(ctx context.Context) (int64, error) {
	return q.count(ctx, countAllPosts)
}

const countPostsByStatus = `SELECT COUNT(*) FROM posts WHERE status = ?`

func (q *Queries) CountPostsByStatus(ctx context.Context, status string) (int64, error) {
	return q.count(ctx, countPostsByStatus, status)
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	return q.count(ctx, countUsers)
}

const countComments = `SELECT COUNT(*) FROM comments`

func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	return q.count(ctx, countComments)
}

const countCommentsByPost = `SELECT COUNT(*) FROM comments WHERE post_id = ?`

func (q *Queries) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	return q.count(ctx, countCommentsByPost, postID)
}

const countSubscribers = `SELECT COUNT(*) FROM subscribers`

func (q *Queries) CountSubscribers(ctx context.Context) (int64, error) {
	return q.count(ctx, countSubscribers)
}

const countUnreadMessages = `SELECT COUNT(*) FROM contact_messages WHERE is_read = 0`

func (q *Queries) CountUnreadMessages(ctx context.Context) (int64, error) {
	return q.count(ctx, countUnreadMessages)
}
