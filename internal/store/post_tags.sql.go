// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

const insertPostTag = `INSERT INTO post_tags (post_id, name, slug) VALUES (?, ?, ?)`

func (q *Queries) InsertPostTag(ctx context.Context, arg PostTag) error {
	_, err := q.db.ExecContext(ctx, insertPostTag, arg.PostID, arg.Name, arg.Slug)
	return err
}

const deletePostTags = `DELETE FROM post_tags WHERE post_id = ?`

func (q *Queries) DeletePostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, deletePostTags, postID)
	return err
}

const listPostTags = `SELECT post_id, name, slug FROM post_tags WHERE post_id = ? ORDER BY name`

func (q *Queries) ListPostTags(ctx context.Context, postID int64) ([]PostTag, error) {
	rows, err := q.db.QueryContext(ctx, listPostTags, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostTag
	for rows.Next() {
		var t PostTag
		if err := rows.Scan(&t.PostID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
