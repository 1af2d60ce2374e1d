// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// Sweeper promotes scheduled posts whose time has come.
type Sweeper interface {
	PromoteDue(ctx context.Context) (int64, error)
}

// PromoteScheduled runs the scheduled-post sweep before every request so
// readers never see a post that should already be live as unpublished. A
// failed sweep is logged and the request continues.
func PromoteScheduled(s Sweeper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := s.PromoteDue(r.Context()); err != nil {
				slog.Error("scheduled post sweep failed", "category", "scheduler", "path", r.URL.Path, "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}
