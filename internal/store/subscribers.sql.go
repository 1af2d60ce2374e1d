// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createSubscriber = `INSERT INTO subscribers (email, name, token, subscribed_at) VALUES (?, ?, ?, ?)`

type CreateSubscriberParams struct {
	Email        string
	Name         sql.NullString
	Token        string
	SubscribedAt time.Time
}

func (q *Queries) CreateSubscriber(ctx context.Context, arg CreateSubscriberParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createSubscriber, arg.Email, arg.Name, arg.Token, arg.SubscribedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const countSubscribersByEmail = `SELECT COUNT(*) FROM subscribers WHERE email = ?`

func (q *Queries) CountSubscribersByEmail(ctx context.Context, email string) (int64, error) {
	return q.count(ctx, countSubscribersByEmail, email)
}

const subscriberColumns = `SELECT id, email, name, token, subscribed_at FROM subscribers`

func scanSubscriber(row interface{ Scan(...any) error }) (Subscriber, error) {
	var s Subscriber
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Token, &s.SubscribedAt)
	return s, err
}

const getSubscriber = subscriberColumns + ` WHERE id = ?`

func (q *Queries) GetSubscriber(ctx context.Context, id int64) (Subscriber, error) {
	return scanSubscriber(q.db.QueryRowContext(ctx, getSubscriber, id))
}

const listSubscribers = subscriberColumns + `
ORDER BY subscribed_at DESC, id DESC`

func (q *Queries) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := q.db.QueryContext(ctx, listSubscribers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteSubscriber = `DELETE FROM subscribers WHERE id = ?`

func (q *Queries) DeleteSubscriber(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSubscriber, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSubscriberByToken = `DELETE FROM subscribers WHERE token = ?`

func (q *Queries) DeleteSubscriberByToken(ctx context.Context, token string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSubscriberByToken, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
