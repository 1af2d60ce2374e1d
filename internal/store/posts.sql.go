// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// MaxListLimit stands in for "no limit"; both dialects require a LIMIT before OFFSET.
const MaxListLimit = 1<<31 - 1

const postColumns = `p.id, p.title, p.content, p.author_id, p.category, p.tags, p.featured_image,
p.status, p.published_at, p.scheduled_for, p.created_at, p.updated_at`

const postWithAuthorSelect = `SELECT ` + postColumns + `, u.username, u.bio, u.profile_image
FROM posts p
JOIN users u ON u.id = p.author_id`

func scanPostWithAuthor(row interface{ Scan(...any) error }) (PostWithAuthorRow, error) {
	var r PostWithAuthorRow
	err := row.Scan(
		&r.ID, &r.Title, &r.Content, &r.AuthorID, &r.Category, &r.Tags, &r.FeaturedImage,
		&r.Status, &r.PublishedAt, &r.ScheduledFor, &r.CreatedAt, &r.UpdatedAt,
		&r.AuthorName, &r.AuthorBio, &r.AuthorImage,
	)
	return r, err
}

type CreatePostParams struct {
	Title         string
	Content       string
	AuthorID      int64
	Category      string
	Tags          string
	FeaturedImage sql.NullString
	Status        string
	PublishedAt   sql.NullTime
	ScheduledFor  sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const createPost = `INSERT INTO posts (
    title, content, author_id, category, tags, featured_image,
    status, published_at, scheduled_for, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPost,
		arg.Title, arg.Content, arg.AuthorID, arg.Category, arg.Tags, arg.FeaturedImage,
		arg.Status, arg.PublishedAt, arg.ScheduledFor, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type UpdatePostParams struct {
	Title         string
	Content       string
	Category      string
	Tags          string
	FeaturedImage sql.NullString
	KeepImage     bool
	Status        string
	PublishedAt   sql.NullTime
	ScheduledFor  sql.NullTime
	UpdatedAt     time.Time
	ID            int64
}

// featured_image is left alone when KeepImage is set.
const updatePost = `UPDATE posts
SET title = ?, content = ?, category = ?, tags = ?,
    featured_image = CASE WHEN ? THEN featured_image ELSE ? END,
    status = ?, published_at = ?, scheduled_for = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePost,
		arg.Title, arg.Content, arg.Category, arg.Tags,
		arg.KeepImage, arg.FeaturedImage,
		arg.Status, arg.PublishedAt, arg.ScheduledFor, arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPostWithAuthor = postWithAuthorSelect + ` WHERE p.id = ?`

func (q *Queries) GetPostWithAuthor(ctx context.Context, id int64) (PostWithAuthorRow, error) {
	return scanPostWithAuthor(q.db.QueryRowContext(ctx, getPostWithAuthor, id))
}

type ListPostsParams struct {
	Status   string
	Category string
	// TagLike is a LIKE pattern against the denormalized tags column.
	TagLike string
	// TagSlug matches a normalized post_tags row exactly.
	TagSlug    string
	SearchLike string
	AuthorID   int64
	Limit      int64
	Offset     int64
}

const postFilterWhere = `
WHERE (? = '' OR p.status = ?)
  AND (? = '' OR p.category = ?)
  AND (? = '' OR p.tags LIKE ?)
  AND (? = '' OR EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.slug = ?))
  AND (? = '' OR p.title LIKE ? OR p.content LIKE ?)
  AND (? = 0 OR p.author_id = ?)`

const listPosts = postWithAuthorSelect + postFilterWhere + `
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`

const countPosts = `SELECT COUNT(*) FROM posts p` + postFilterWhere

func (arg ListPostsParams) filterArgs() []any {
	return []any{
		arg.Status, arg.Status,
		arg.Category, arg.Category,
		arg.TagLike, arg.TagLike,
		arg.TagSlug, arg.TagSlug,
		arg.SearchLike, arg.SearchLike, arg.SearchLike,
		arg.AuthorID, arg.AuthorID,
	}
}

// CountPosts counts the posts matching the filters of arg, ignoring Limit
// and Offset.
func (q *Queries) CountPosts(ctx context.Context, arg ListPostsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPosts, arg.filterArgs()...).Scan(&n)
	return n, err
}

func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]PostWithAuthorRow, error) {
	limit := arg.Limit
	if limit <= 0 {
		limit = MaxListLimit
	}
	rows, err := q.db.QueryContext(ctx, listPosts, append(arg.filterArgs(), limit, arg.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostWithAuthorRow
	for rows.Next() {
		r, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deletePost = `DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePost, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const reassignPosts = `UPDATE posts SET author_id = ? WHERE author_id = ?`

func (q *Queries) ReassignPosts(ctx context.Context, fromAuthorID, toAuthorID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, reassignPosts, toAuthorID, fromAuthorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// The status predicate makes repeated or concurrent sweeps safe.
const promoteScheduledPosts = `UPDATE posts
SET status = 'published', published_at = ?, updated_at = ?
WHERE status = 'scheduled' AND scheduled_for <= ?`

func (q *Queries) PromoteScheduledPosts(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, promoteScheduledPosts, now, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listDistinctCategories = `SELECT DISTINCT category FROM posts WHERE category <> ''`

func (q *Queries) ListDistinctCategories(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listDistinctCategories)
}

const listTagStrings = `SELECT tags FROM posts WHERE tags <> ''`

func (q *Queries) ListTagStrings(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listTagStrings)
}

func (q *Queries) listStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
