// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/model"
)

// CommentRequest is the body of POST /posts/{id}/comments.
type CommentRequest struct {
	Content string `json:"content"`
}

// ListComments handles GET /api/v1/posts/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}

	comments, err := h.Comments.List(r.Context(), post.ID)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	items, meta := pageOf(r, comments)
	WriteSuccess(w, items, meta)
}

// CreateComment handles POST /api/v1/posts/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r)
	id, err := h.Comments.Add(r.Context(), post.ID, userID, req.Content)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}

	h.logEvent(r.Context(), model.EventLevelInfo, model.EventCategoryComment, "Comment added", &userID, map[string]any{
		"comment_id": id,
		"post_id":    post.ID,
	})

	comment, err := h.Comments.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	WriteCreated(w, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}. Admins may delete any
// comment, other users only their own.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "comment")
	if !ok {
		return
	}

	comment, err := h.Comments.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}

	user := middleware.GetUser(r)
	if !user.IsAdmin() && comment.UserID != user.ID {
		WriteForbidden(w, "You can only delete your own comments")
		return
	}

	if err := h.Comments.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}

	h.logEvent(r.Context(), model.EventLevelInfo, model.EventCategoryComment, "Comment deleted", &user.ID, map[string]any{
		"comment_id": id,
		"post_id":    comment.PostID,
	})
	w.WriteHeader(http.StatusNoContent)
}
