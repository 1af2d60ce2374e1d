// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/service"
	"github.com/olegiv/oblog/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser ContextKey = "user"
)

// UserLookup loads the account behind a session.
type UserLookup interface {
	GetProfile(ctx context.Context, id int64) (model.User, error)
}

// LoadUser loads the logged-in user into the request context. The account
// is re-read on every request so role changes and deletions take effect
// immediately; a session whose account is gone is destroyed.
func LoadUser(sm *scs.SessionManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := session.Identity(r.Context(), sm)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetProfile(r.Context(), id.ID)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					_ = sm.Destroy(r.Context())
				} else {
					slog.Error("failed to load session user", "user_id", id.ID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if user.Role != id.Role {
				session.SetRole(r.Context(), sm, user.Role)
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a copy of ctx carrying user. Used by tests and by
// handlers that authenticate inline.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID, or nil.
// Useful for optional user ID parameters in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// IsAdmin reports whether the request comes from an administrator.
func IsAdmin(r *http.Request) bool {
	user := GetUser(r)
	return user != nil && user.IsAdmin()
}

// RequireAuth rejects requests without a logged-in user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EventLogger records security-relevant events.
type EventLogger interface {
	LogWarning(ctx context.Context, category, message string, userID *int64, metadata map[string]any) error
}

// RequireAdmin rejects requests from anyone but an administrator. Denials
// are written to the event log when events is non-nil.
func RequireAdmin(events EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			if !user.IsAdmin() {
				slog.Info("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"remote_addr", r.RemoteAddr,
				)
				if events != nil {
					_ = events.LogWarning(r.Context(), model.EventCategoryAuth, "Access denied: admin role required", &user.ID, map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
					})
				}
				writeError(w, http.StatusForbidden, "forbidden", "Admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
