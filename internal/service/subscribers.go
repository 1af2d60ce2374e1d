// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/util"
)

// SubscriberService manages newsletter signups.
type SubscriberService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewSubscriberService creates a new SubscriberService.
func NewSubscriberService(db *sql.DB) *SubscriberService {
	return &SubscriberService{queries: store.New(db), now: time.Now}
}

// Add subscribes an email address and issues its unsubscribe token. A
// duplicate address yields ErrConflict, which callers present as "already
// subscribed".
func (s *SubscriberService) Add(ctx context.Context, email string, name *string) (int64, error) {
	email = strings.TrimSpace(email)

	v := validator{}
	v.require("email", email)
	v.check(util.IsValidEmail(email), "email", "is not a valid email address")
	if err := v.err(); err != nil {
		return 0, err
	}

	n, err := s.queries.CountSubscribersByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("checking subscriber: %w", err)
	}
	if n > 0 {
		return 0, ErrConflict
	}

	var nullName sql.NullString
	if name != nil {
		nullName = util.NullStringFromValue(strings.TrimSpace(*name))
	}

	id, err := s.queries.CreateSubscriber(ctx, store.CreateSubscriberParams{
		Email:        email,
		Name:         nullName,
		Token:        uuid.NewString(),
		SubscribedAt: s.now().UTC(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("creating subscriber: %w", err)
	}

	slog.Info("subscriber added", "subscriber_id", id)
	return id, nil
}

// Get returns one subscriber, including its unsubscribe token.
func (s *SubscriberService) Get(ctx context.Context, id int64) (model.Subscriber, error) {
	row, err := s.queries.GetSubscriber(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subscriber{}, ErrNotFound
	}
	if err != nil {
		return model.Subscriber{}, fmt.Errorf("getting subscriber: %w", err)
	}
	return toSubscriber(row), nil
}

// List returns all subscribers, newest first.
func (s *SubscriberService) List(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := s.queries.ListSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	subs := make([]model.Subscriber, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, toSubscriber(r))
	}
	return subs, nil
}

// Unsubscribe removes the subscriber holding token. Malformed and unknown
// tokens both yield ErrNotFound.
func (s *SubscriberService) Unsubscribe(ctx context.Context, token string) error {
	parsed, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return ErrNotFound
	}
	n, err := s.queries.DeleteSubscriberByToken(ctx, parsed.String())
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.Info("subscriber unsubscribed")
	return nil
}

func toSubscriber(r store.Subscriber) model.Subscriber {
	return model.Subscriber{
		ID:           r.ID,
		Email:        r.Email,
		Name:         util.StringPtr(r.Name),
		Token:        r.Token,
		SubscribedAt: r.SubscribedAt,
	}
}

// Delete removes a subscriber. Administrative cleanup only.
func (s *SubscriberService) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteSubscriber(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting subscriber: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.Info("subscriber deleted", "subscriber_id", id)
	return nil
}
