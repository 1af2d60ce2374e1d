// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API of the blog.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog/internal/cache"
	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/render"
	"github.com/olegiv/oblog/internal/scheduler"
	"github.com/olegiv/oblog/internal/service"
	"github.com/olegiv/oblog/internal/version"
)

// Deps lists everything the handlers need. Scheduler, Cache and
// LoginProtection are optional.
type Deps struct {
	DB          *sql.DB
	Users       *service.UserService
	Posts       *service.PostService
	Comments    *service.CommentService
	Taxonomy    *service.TaxonomyService
	Subscribers *service.SubscriberService
	Messages    *service.MessageService
	Stats       *service.StatsService
	Events      *service.EventService

	Sessions        *scs.SessionManager
	LoginProtection *middleware.LoginProtection
	Renderer        *render.Renderer
	Scheduler       *scheduler.Scheduler
	Cache           cache.Cache
	Version         version.Info
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	Deps
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	if d.Renderer == nil {
		d.Renderer = render.New()
	}
	return &Handler{
		Deps:      d,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages"`
}

func newMeta(total int64, page, perPage int) *Meta {
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return &Meta{Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// IDResponse is returned when a resource is created.
type IDResponse struct {
	ID int64 `json:"id"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps a service error onto the matching response.
// entity names the resource in not-found messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, entity+" not found")
	case errors.Is(err, service.ErrConflict):
		WriteConflict(w, entity+" already exists")
	case errors.Is(err, service.ErrForbidden):
		WriteForbidden(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteUnauthorized(w, "Invalid username or password")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Internal server error")
	}
}

// decodeJSON reads a JSON request body into dst. It writes a 400 response
// and returns false when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}

const maxBodyBytes = 1 << 20

// parseIDParam parses the {id} URL parameter. It writes a 400 response and
// returns false when the id is not a positive integer.
func parseIDParam(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid "+entity+" ID", nil)
		return 0, false
	}
	return id, true
}

// parseIntParam parses an integer query parameter. Returns defaultVal if
// the parameter is missing, invalid or outside [minVal, maxVal]. A zero
// bound is not checked.
func parseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if minVal > 0 && val < minVal {
		return defaultVal
	}
	if maxVal > 0 && val > maxVal {
		return defaultVal
	}
	return val
}

// Pagination defaults for list endpoints. maxOffset bounds page so the
// computed OFFSET cannot overflow.
const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxOffset      = 1<<31 - 1
)

// parsePagination reads the page and per_page query parameters. A page
// beyond maxOffset falls back to 1 like any other invalid value.
func parsePagination(r *http.Request) (page, perPage, offset int) {
	perPage = parseIntParam(r, "per_page", defaultPerPage, 1, maxPerPage)
	page = parseIntParam(r, "page", 1, 1, maxOffset/perPage+1)
	return page, perPage, (page - 1) * perPage
}

// pageOf slices an already loaded list according to ?page and ?per_page.
func pageOf[T any](r *http.Request, items []T) ([]T, *Meta) {
	page, perPage, offset := parsePagination(r)
	meta := newMeta(int64(len(items)), page, perPage)
	if offset >= len(items) {
		return []T{}, meta
	}
	return items[offset:min(offset+perPage, len(items))], meta
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		Version: h.Version.String(),
	}, nil)
}
