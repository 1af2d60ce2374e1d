// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/render"
	"github.com/olegiv/oblog/internal/service"
)

const (
	excerptLength = 150
	relatedLimit  = 3
)

// PostResponse represents a post in API responses.
type PostResponse struct {
	model.PostWithAuthor
	TagList     []string       `json:"tag_list"`
	Excerpt     string         `json:"excerpt"`
	DateLabel   string         `json:"date_label,omitempty"`
	ContentHTML string         `json:"content_html,omitempty"`
	Related     []PostResponse `json:"related,omitempty"`
}

// PostRequest is the body of POST /posts and PUT /posts/{id}.
// ScheduledFor accepts RFC 3339 or the "2006-01-02T15:04" form posted by
// datetime-local inputs, read as UTC.
type PostRequest struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Category      string  `json:"category"`
	Tags          string  `json:"tags"`
	Status        string  `json:"status"`
	FeaturedImage *string `json:"featured_image,omitempty"`
	ScheduledFor  *string `json:"scheduled_for,omitempty"`
}

var scheduleLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

func parseSchedule(s string) (time.Time, bool) {
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// toInput validates the request fields the services cannot check on their
// own and builds the service input.
func (h *Handler) toInput(req PostRequest) (service.PostInput, map[string]string) {
	in := service.PostInput{
		Title:         req.Title,
		Content:       req.Content,
		Category:      req.Category,
		Tags:          req.Tags,
		Status:        req.Status,
		FeaturedImage: req.FeaturedImage,
	}

	fieldErrors := map[string]string{}
	if req.ScheduledFor != nil && *req.ScheduledFor != "" {
		t, ok := parseSchedule(*req.ScheduledFor)
		if !ok {
			fieldErrors["scheduled_for"] = "is not a valid date and time"
		} else {
			in.ScheduledFor = &t
		}
	}
	if in.Status == model.PostStatusScheduled && in.ScheduledFor != nil && !in.ScheduledFor.After(h.now()) {
		fieldErrors["scheduled_for"] = "must be in the future"
	}
	return in, fieldErrors
}

func (h *Handler) postResponse(p model.PostWithAuthor) PostResponse {
	resp := PostResponse{
		PostWithAuthor: p,
		TagList:        p.TagList(),
		Excerpt:        h.Renderer.Excerpt(p.Content, excerptLength),
	}
	if resp.TagList == nil {
		resp.TagList = []string{}
	}
	switch {
	case p.PublishedAt != nil:
		resp.DateLabel = render.FormatDateTime(*p.PublishedAt)
	case p.ScheduledFor != nil:
		resp.DateLabel = render.FormatDateTime(*p.ScheduledFor)
	}
	return resp
}

// canView reports whether the caller may see p. Only admins see drafts and
// scheduled posts.
func canView(r *http.Request, p model.PostWithAuthor) bool {
	return p.IsPublished() || middleware.IsAdmin(r)
}

// ListPosts handles GET /api/v1/posts.
// Query parameters: status, category, tag, q, author_id, page, per_page.
// Callers other than admins only see published posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage, offset := parsePagination(r)

	f := service.PostFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Search:   strings.TrimSpace(q.Get("q")),
		Limit:    int64(perPage),
		Offset:   int64(offset),
	}
	if f.Status != "" && !model.IsValidPostStatus(f.Status) {
		WriteBadRequest(w, "Invalid status", map[string]string{"status": "must be draft, scheduled or published"})
		return
	}
	if s := q.Get("author_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			WriteBadRequest(w, "Invalid author ID", nil)
			return
		}
		f.AuthorID = id
	}

	if !middleware.IsAdmin(r) {
		if f.Status != "" && f.Status != model.PostStatusPublished {
			WriteForbidden(w, "Admin role required to view unpublished posts")
			return
		}
		f.Status = model.PostStatusPublished
	}

	posts, err := h.Posts.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	total, err := h.Posts.Count(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}

	responses := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, h.postResponse(p))
	}
	WriteSuccess(w, responses, newMeta(total, page, perPage))
}

// GetPost handles GET /api/v1/posts/{id}. The response carries the rendered
// content and related posts.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	id := post.ID

	resp := h.postResponse(post)
	var err error
	resp.ContentHTML, err = h.Renderer.HTML(post.Content)
	if err != nil {
		slog.Error("rendering post content", "post_id", id, "error", err)
		WriteInternalError(w, "Failed to render post")
		return
	}

	related, err := h.Posts.Related(r.Context(), id, relatedLimit)
	if err != nil {
		slog.Warn("loading related posts", "post_id", id, "error", err)
	}
	for _, p := range related {
		resp.Related = append(resp.Related, h.postResponse(p))
	}

	WriteSuccess(w, resp, nil)
}

// CreatePost handles POST /api/v1/posts. The caller becomes the author.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, fieldErrors := h.toInput(req)
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}
	in.AuthorID = middleware.GetUserID(r)

	id, err := h.Posts.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}

	post, err := h.Posts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	WriteCreated(w, h.postResponse(post))
}

// UpdatePost handles PUT /api/v1/posts/{id}. The author is never changed.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}

	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, fieldErrors := h.toInput(req)
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}
	in.AuthorID = middleware.GetUserID(r)

	if err := h.Posts.Update(r.Context(), id, in); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}

	post, err := h.Posts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	WriteSuccess(w, h.postResponse(post), nil)
}

// DeletePost handles DELETE /api/v1/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}

	if err := h.Posts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// visiblePost loads the post named by the {id} parameter and hides it from
// callers who may not see it. It writes the error response and returns
// false on failure.
func (h *Handler) visiblePost(w http.ResponseWriter, r *http.Request) (model.PostWithAuthor, bool) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return model.PostWithAuthor{}, false
	}
	post, err := h.Posts.Get(r.Context(), id)
	if err == nil && !canView(r, post) {
		err = service.ErrNotFound
	}
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return model.PostWithAuthor{}, false
	}
	return post, true
}
