// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/scheduler"
	"github.com/olegiv/oblog/internal/service"
)

// DashboardStats handles GET /api/v1/admin/stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Deps.Stats.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Stats")
		return
	}
	WriteSuccess(w, stats, nil)
}

// ListUsers handles GET /api/v1/admin/users. Query parameters: page, per_page.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	items, meta := pageOf(r, users)
	WriteSuccess(w, items, meta)
}

// RoleRequest is the body of PUT /admin/users/{id}/role.
type RoleRequest struct {
	Role string `json:"role"`
}

// SetUserRole handles PUT /api/v1/admin/users/{id}/role.
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}

	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Users.SetRole(r.Context(), id, req.Role); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	h.logEvent(r.Context(), model.EventLevelInfo, model.EventCategoryUser, "User role changed", middleware.GetUserIDPtr(r), map[string]any{
		"target_user_id": id,
		"role":           req.Role,
	})

	user, err := h.Users.GetProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	WriteSuccess(w, user, nil)
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}. Admins cannot delete
// their own account here.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}
	if id == middleware.GetUserID(r) {
		WriteForbidden(w, "You cannot delete your own account")
		return
	}

	if err := h.Users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSubscribers handles GET /api/v1/admin/subscribers.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.Subscribers.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Subscriber")
		return
	}
	items, meta := pageOf(r, subscribers)
	WriteSuccess(w, items, meta)
}

// DeleteSubscriber handles DELETE /api/v1/admin/subscribers/{id}.
func (h *Handler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "subscriber")
	if !ok {
		return
	}
	if err := h.Subscribers.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Subscriber")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages handles GET /api/v1/admin/messages. ?unread=1 lists only
// unread messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread")
	messages, err := h.Messages.List(r.Context(), unread == "1" || unread == "true")
	if err != nil {
		writeServiceError(w, r, err, "Message")
		return
	}
	items, meta := pageOf(r, messages)
	WriteSuccess(w, items, meta)
}

// MarkMessageRead handles POST /api/v1/admin/messages/{id}/read.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "message")
	if !ok {
		return
	}
	if err := h.Messages.MarkRead(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Message")
		return
	}
	WriteSuccess(w, MessageResponse{Message: "marked as read"}, nil)
}

// DeleteMessage handles DELETE /api/v1/admin/messages/{id}.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "message")
	if !ok {
		return
	}
	if err := h.Messages.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvents handles GET /api/v1/admin/events.
// Query parameters: level, category, page, per_page.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if level != "" && !model.IsValidEventLevel(level) {
		WriteBadRequest(w, "Invalid level", map[string]string{"level": "must be info, warning or error"})
		return
	}

	page, perPage, offset := parsePagination(r)
	events, total, err := h.Events.List(r.Context(), service.EventFilter{
		Level:    level,
		Category: r.URL.Query().Get("category"),
		Limit:    int64(perPage),
		Offset:   int64(offset),
	})
	if err != nil {
		writeServiceError(w, r, err, "Event")
		return
	}
	WriteSuccess(w, events, newMeta(total, page, perPage))
}

// ListJobs handles GET /api/v1/admin/scheduler.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := []scheduler.JobInfo{}
	if h.Scheduler != nil {
		jobs = h.Scheduler.Jobs()
	}
	WriteSuccess(w, jobs, nil)
}

// PromoteResponse reports the outcome of a manual sweep.
type PromoteResponse struct {
	Promoted int64 `json:"promoted"`
}

// RunScheduler handles POST /api/v1/admin/scheduler/run. Without ?job it
// promotes due scheduled posts immediately; ?job=name triggers that job.
func (h *Handler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if name := r.URL.Query().Get("job"); name != "" && name != scheduler.JobPromoteScheduled {
		if h.Scheduler == nil {
			WriteNotFound(w, "Job not found")
			return
		}
		err := h.Scheduler.Trigger(ctx, name)
		if errors.Is(err, scheduler.ErrUnknownJob) {
			WriteNotFound(w, "Job not found")
			return
		}
		if err != nil {
			writeServiceError(w, r, err, "Job")
			return
		}
		WriteSuccess(w, MessageResponse{Message: "job " + name + " completed"}, nil)
		return
	}

	var (
		n   int64
		err error
	)
	if h.Scheduler != nil {
		n, err = h.Scheduler.PromoteNow(ctx)
	} else {
		n, err = h.Posts.PromoteDue(ctx)
	}
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, PromoteResponse{Promoted: n}, nil)
}
