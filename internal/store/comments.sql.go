// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

type CreateCommentParams struct {
	PostID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

const createComment = `INSERT INTO comments (post_id, user_id, content, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createComment, arg.PostID, arg.UserID, arg.Content, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getComment = `SELECT id, post_id, user_id, content, created_at FROM comments WHERE id = ?`

func (q *Queries) GetComment(ctx context.Context, id int64) (Comment, error) {
	var c Comment
	err := q.db.QueryRowContext(ctx, getComment, id).Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
	return c, err
}

const commentWithAuthorSelect = `SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, u.username, u.profile_image
FROM comments c
JOIN users u ON u.id = c.user_id`

const listCommentsByPost = commentWithAuthorSelect + `
WHERE c.post_id = ?
ORDER BY c.created_at DESC, c.id DESC`

func (q *Queries) ListCommentsByPost(ctx context.Context, postID int64) ([]CommentWithAuthorRow, error) {
	return q.listComments(ctx, listCommentsByPost, postID)
}

const listCommentsByUser = commentWithAuthorSelect + `
WHERE c.user_id = ?
ORDER BY c.created_at DESC, c.id DESC`

func (q *Queries) ListCommentsByUser(ctx context.Context, userID int64) ([]CommentWithAuthorRow, error) {
	return q.listComments(ctx, listCommentsByUser, userID)
}

func (q *Queries) listComments(ctx context.Context, query string, id int64) ([]CommentWithAuthorRow, error) {
	rows, err := q.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CommentWithAuthorRow
	for rows.Next() {
		var r CommentWithAuthorRow
		if err := rows.Scan(&r.ID, &r.PostID, &r.UserID, &r.Content, &r.CreatedAt, &r.Username, &r.ProfileImage); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteComment = `DELETE FROM comments WHERE id = ?`

func (q *Queries) DeleteComment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteComment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCommentsByPost = `DELETE FROM comments WHERE post_id = ?`

func (q *Queries) DeleteCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCommentsByPost, postID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCommentsByUser = `DELETE FROM comments WHERE user_id = ?`

func (q *Queries) DeleteCommentsByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCommentsByUser, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
