// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

type CreateContactMessageParams struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

const createContactMessage = `INSERT INTO contact_messages (name, email, subject, message, is_read, created_at)
VALUES (?, ?, ?, ?, 0, ?)`

func (q *Queries) CreateContactMessage(ctx context.Context, arg CreateContactMessageParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createContactMessage, arg.Name, arg.Email, arg.Subject, arg.Message, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listContactMessages = `SELECT id, name, email, subject, message, is_read, created_at
FROM contact_messages
WHERE (? = 0 OR is_read = 0)
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListContactMessages(ctx context.Context, unreadOnly bool) ([]ContactMessage, error) {
	rows, err := q.db.QueryContext(ctx, listContactMessages, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ContactMessage
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markContactMessageRead = `UPDATE contact_messages SET is_read = 1 WHERE id = ?`

func (q *Queries) MarkContactMessageRead(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markContactMessageRead, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteContactMessage = `DELETE FROM contact_messages WHERE id = ?`

func (q *Queries) DeleteContactMessage(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContactMessage, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
