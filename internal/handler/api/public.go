// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog/internal/service"
)

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Taxonomy.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Category")
		return
	}
	WriteSuccess(w, categories, nil)
}

// ListTags handles GET /api/v1/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Taxonomy.Tags(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Tag")
		return
	}
	WriteSuccess(w, tags, nil)
}

// SubscribeRequest is the body of POST /subscribers.
type SubscribeRequest struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// SubscribeResponse is returned for a new subscription. The token is only
// ever handed out here.
type SubscribeResponse struct {
	ID               int64  `json:"id"`
	UnsubscribeToken string `json:"unsubscribe_token"`
}

// Subscribe handles POST /api/v1/subscribers. Subscribing an address twice
// is not an error: the second call reports that it is already subscribed.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.Subscribers.Add(r.Context(), req.Email, req.Name)
	if errors.Is(err, service.ErrConflict) {
		WriteSuccess(w, MessageResponse{Message: "already subscribed"}, nil)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "Subscriber")
		return
	}

	sub, err := h.Subscribers.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Subscriber")
		return
	}
	WriteCreated(w, SubscribeResponse{ID: id, UnsubscribeToken: sub.Token})
}

// Unsubscribe handles DELETE /api/v1/subscribers/{token}.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.Subscribers.Unsubscribe(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeServiceError(w, r, err, "Subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ContactRequest is the body of POST /contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Contact handles POST /api/v1/contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.Messages.Add(r.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err, "Message")
		return
	}
	WriteCreated(w, IDResponse{ID: id})
}
