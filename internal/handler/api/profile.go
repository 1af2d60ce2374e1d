// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/service"
)

// ProfileResponse is the caller's account together with their comments.
type ProfileResponse struct {
	model.User
	Comments []model.CommentWithAuthor `json:"comments"`
}

// ProfileRequest is the body of PUT /profile. Omitted fields are left
// unchanged. NewPassword requires CurrentPassword.
type ProfileRequest struct {
	Bio             *string `json:"bio,omitempty"`
	ProfileImage    *string `json:"profile_image,omitempty"`
	CurrentPassword string  `json:"current_password,omitempty"`
	NewPassword     string  `json:"new_password,omitempty"`
}

// GetProfile handles GET /api/v1/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	comments, err := h.Comments.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	WriteSuccess(w, ProfileResponse{User: *user, Comments: comments}, nil)
}

// UpdateProfile handles PUT /api/v1/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(r)

	if req.NewPassword != "" {
		if err := h.Users.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
			writeServiceError(w, r, err, "User")
			return
		}
		h.logEvent(ctx, model.EventLevelInfo, model.EventCategoryAuth, "Password changed", &userID, nil)
	}

	if req.Bio != nil || req.ProfileImage != nil {
		if err := h.Users.UpdateProfile(ctx, userID, service.ProfileUpdate{
			Bio:          req.Bio,
			ProfileImage: req.ProfileImage,
		}); err != nil {
			writeServiceError(w, r, err, "User")
			return
		}
	}

	user, err := h.Users.GetProfile(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	WriteSuccess(w, user, nil)
}
