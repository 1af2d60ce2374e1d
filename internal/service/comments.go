// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/util"
)

// CommentService manages comments on posts.
type CommentService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB) *CommentService {
	return &CommentService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// Add stores a comment. Empty content is a validation error; a missing
// post or user yields ErrNotFound.
func (s *CommentService) Add(ctx context.Context, postID, userID int64, content string) (int64, error) {
	v := validator{}
	v.require("content", content)
	if err := v.err(); err != nil {
		return 0, err
	}

	id, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("creating comment: %w", err)
	}

	slog.Info("comment added", "comment_id", id, "post_id", postID, "user_id", userID)
	return id, nil
}

// Get returns a single comment.
func (s *CommentService) Get(ctx context.Context, id int64) (model.Comment, error) {
	c, err := s.queries.GetComment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, ErrNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("loading comment: %w", err)
	}
	return model.Comment{ID: c.ID, PostID: c.PostID, UserID: c.UserID, Content: c.Content, CreatedAt: c.CreatedAt}, nil
}

// List returns a post's comments, newest first.
func (s *CommentService) List(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error) {
	rows, err := s.queries.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return commentsFromRows(rows), nil
}

// ListByUser returns a user's comments, newest first.
func (s *CommentService) ListByUser(ctx context.Context, userID int64) ([]model.CommentWithAuthor, error) {
	rows, err := s.queries.ListCommentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return commentsFromRows(rows), nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteComment(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.Info("comment deleted", "comment_id", id)
	return nil
}

func commentsFromRows(rows []store.CommentWithAuthorRow) []model.CommentWithAuthor {
	comments := make([]model.CommentWithAuthor, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, model.CommentWithAuthor{
			Comment: model.Comment{
				ID:        r.ID,
				PostID:    r.PostID,
				UserID:    r.UserID,
				Content:   r.Content,
				CreatedAt: r.CreatedAt,
			},
			Username:     r.Username,
			ProfileImage: util.StringPtr(r.ProfileImage),
		})
	}
	return comments
}
