// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/util"
)

// MessageService manages the contact-form inbox.
type MessageService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *sql.DB) *MessageService {
	return &MessageService{queries: store.New(db), now: time.Now}
}

// ContactInput is an anonymous contact-form submission.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Add stores a new unread message.
func (s *MessageService) Add(ctx context.Context, in ContactInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)

	v := validator{}
	v.require("name", in.Name)
	v.require("email", in.Email)
	v.require("subject", in.Subject)
	v.require("message", in.Message)
	v.check(util.IsValidEmail(in.Email), "email", "is not a valid email address")
	if err := v.err(); err != nil {
		return 0, err
	}

	id, err := s.queries.CreateContactMessage(ctx, store.CreateContactMessageParams{
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("creating message: %w", err)
	}

	slog.Info("contact message received", "message_id", id)
	return id, nil
}

// List returns messages newest first, optionally only unread ones.
func (s *MessageService) List(ctx context.Context, unreadOnly bool) ([]model.ContactMessage, error) {
	rows, err := s.queries.ListContactMessages(ctx, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	msgs := make([]model.ContactMessage, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, model.ContactMessage{
			ID:        r.ID,
			Name:      r.Name,
			Email:     r.Email,
			Subject:   r.Subject,
			Message:   r.Message,
			Read:      r.IsRead,
			CreatedAt: r.CreatedAt,
		})
	}
	return msgs, nil
}

// MarkRead flags a message as read.
func (s *MessageService) MarkRead(ctx context.Context, id int64) error {
	n, err := s.queries.MarkContactMessageRead(ctx, id)
	if err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a message.
func (s *MessageService) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteContactMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.Info("contact message deleted", "message_id", id)
	return nil
}
