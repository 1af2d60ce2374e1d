// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/service"
	"github.com/olegiv/oblog/internal/session"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    string  `json:"email"`
	Bio      *string `json:"bio,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/auth/register. New accounts always get the
// user role.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.Users.Register(r.Context(), service.RegisterParams{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     model.RoleUser,
		Bio:      req.Bio,
	})
	if errors.Is(err, service.ErrConflict) {
		WriteConflict(w, "Username or email already exists")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	meta := clientMeta(r)
	meta["username"] = strings.TrimSpace(req.Username)
	h.logEvent(r.Context(), model.EventLevelInfo, model.EventCategoryAuth, "User registered", &id, meta)

	user, err := h.Users.GetProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	WriteCreated(w, user)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	username := strings.TrimSpace(req.Username)
	clientIP := middleware.ClientIP(r)
	meta := clientMeta(r)
	meta["username"] = username
	meta["ip"] = clientIP

	fieldErrors := map[string]string{}
	if username == "" {
		fieldErrors["username"] = "is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "is required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	if h.LoginProtection != nil {
		if locked, remaining := h.LoginProtection.IsAccountLocked(username); locked {
			h.logEvent(ctx, model.EventLevelWarning, model.EventCategoryAuth, "Login attempt on locked account", nil, meta)
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Account temporarily locked. Try again in "+remaining.Round(time.Second).String(), nil)
			return
		}
	}

	identity, err := h.Users.Authenticate(ctx, username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logEvent(ctx, model.EventLevelWarning, model.EventCategoryAuth, "Login failed", nil, meta)
		if h.LoginProtection != nil {
			if locked, lockDuration := h.LoginProtection.RecordFailedAttempt(username); locked {
				meta["duration"] = lockDuration.String()
				h.logEvent(ctx, model.EventLevelWarning, model.EventCategoryAuth, "Account locked due to failed attempts", nil, meta)
				WriteError(w, http.StatusTooManyRequests, "account_locked",
					"Too many failed attempts. Try again in "+lockDuration.String(), nil)
				return
			}
		}
		WriteUnauthorized(w, "Invalid username or password")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	if h.LoginProtection != nil {
		h.LoginProtection.RecordSuccessfulLogin(username)
	}

	if err := session.Login(ctx, h.Sessions, identity); err != nil {
		slog.Error("failed to start session", "user_id", identity.ID, "error", err)
		WriteInternalError(w, "Failed to start session")
		return
	}

	h.logEvent(ctx, model.EventLevelInfo, model.EventCategoryAuth, "User logged in", &identity.ID, meta)
	WriteSuccess(w, identity, nil)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDPtr(r)
	if err := session.Logout(r.Context(), h.Sessions); err != nil {
		slog.Error("failed to destroy session", "error", err)
		WriteInternalError(w, "Failed to log out")
		return
	}
	if userID != nil {
		h.logEvent(r.Context(), model.EventLevelInfo, model.EventCategoryAuth, "User logged out", userID, nil)
	}
	WriteSuccess(w, MessageResponse{Message: "logged out"}, nil)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, user, nil)
}

// logEvent writes an audit event when an event service is configured.
func (h *Handler) logEvent(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) {
	if h.Events == nil {
		return
	}
	if err := h.Events.LogEvent(ctx, level, category, message, userID, metadata); err != nil {
		slog.Warn("failed to record event", "message", message, "error", err)
	}
}
