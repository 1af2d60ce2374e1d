// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
)

// StatsService computes dashboard counters.
type StatsService struct {
	queries *store.Queries
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{queries: store.New(db)}
}

// Dashboard returns the aggregate counters. Each is a single scalar query.
func (s *StatsService) Dashboard(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	var err error

	if st.TotalPosts, err = s.queries.CountAllPosts(ctx); err != nil {
		return st, fmt.Errorf("counting posts: %w", err)
	}

	st.PostsByStatus = make(map[string]int64, len(model.ValidPostStatuses))
	for _, status := range model.ValidPostStatuses {
		n, err := s.queries.CountPostsByStatus(ctx, status)
		if err != nil {
			return st, fmt.Errorf("counting %s posts: %w", status, err)
		}
		st.PostsByStatus[status] = n
	}

	if st.TotalUsers, err = s.queries.CountUsers(ctx); err != nil {
		return st, fmt.Errorf("counting users: %w", err)
	}
	if st.TotalComments, err = s.queries.CountComments(ctx); err != nil {
		return st, fmt.Errorf("counting comments: %w", err)
	}
	if st.Subscribers, err = s.queries.CountSubscribers(ctx); err != nil {
		return st, fmt.Errorf("counting subscribers: %w", err)
	}
	if st.UnreadMessages, err = s.queries.CountUnreadMessages(ctx); err != nil {
		return st, fmt.Errorf("counting unread messages: %w", err)
	}
	return st, nil
}
