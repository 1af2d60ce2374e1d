// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/util"
)

// Tag filter modes.
const (
	// TagMatchExact matches the normalized tag slug, so "ai" does not match "air".
	TagMatchExact = "exact"
	// TagMatchSubstring matches any post whose tag string contains the filter.
	TagMatchSubstring = "substring"
)

// IsValidTagMatch reports whether mode is a known tag filter mode.
func IsValidTagMatch(mode string) bool {
	return mode == TagMatchExact || mode == TagMatchSubstring
}

// PostOptions configures a PostService.
type PostOptions struct {
	// TagMatch is TagMatchExact (default) or TagMatchSubstring.
	TagMatch string
	Events   *EventService
	// OnChange runs after every successful post write, e.g. to drop
	// cached taxonomy.
	OnChange func(ctx context.Context)
}

// PostService manages the post lifecycle.
type PostService struct {
	db      *sql.DB
	queries *store.Queries
	opts    PostOptions
	now     func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB, opts PostOptions) *PostService {
	if opts.TagMatch == "" {
		opts.TagMatch = TagMatchExact
	}
	return &PostService{
		db:      db,
		queries: store.New(db),
		opts:    opts,
		now:     time.Now,
	}
}

// PostInput holds the editable fields of a post. AuthorID is only used on
// create. A nil FeaturedImage keeps the current image on update.
type PostInput struct {
	Title         string
	Content       string
	AuthorID      int64
	Category      string
	Tags          string
	Status        string
	FeaturedImage *string
	ScheduledFor  *time.Time
}

func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Tags = util.NormalizeTags(in.Tags)
	if in.Status == "" {
		in.Status = model.PostStatusDraft
	}

	v := validator{}
	v.require("title", in.Title)
	v.require("content", in.Content)
	v.require("category", in.Category)
	v.check(model.IsValidPostStatus(in.Status), "status", "must be draft, scheduled or published")
	if in.Status == model.PostStatusScheduled {
		v.check(in.ScheduledFor != nil, "scheduled_for", "is required for scheduled posts")
	}
	return v.err()
}

// lifecycle derives the timestamp columns for a status: published_at is
// stamped only for published posts and scheduled_for is kept only for
// scheduled ones.
func lifecycle(in PostInput, now time.Time) (publishedAt, scheduledFor sql.NullTime) {
	switch in.Status {
	case model.PostStatusPublished:
		publishedAt = util.NullTimeFromValue(now)
	case model.PostStatusScheduled:
		scheduledFor = util.NullTimeFromPtr(in.ScheduledFor)
	}
	return publishedAt, scheduledFor
}

// Create stores a new post and returns its id. An unknown author yields
// ErrNotFound.
func (s *PostService) Create(ctx context.Context, in PostInput) (int64, error) {
	if err := in.normalize(); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	publishedAt, scheduledFor := lifecycle(in, now)

	var id int64
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetUserByID(ctx, in.AuthorID); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("author: %w", ErrNotFound)
		} else if err != nil {
			return err
		}

		var err error
		id, err = q.CreatePost(ctx, store.CreatePostParams{
			Title:         in.Title,
			Content:       in.Content,
			AuthorID:      in.AuthorID,
			Category:      in.Category,
			Tags:          in.Tags,
			FeaturedImage: util.NullStringFromPtr(in.FeaturedImage),
			Status:        in.Status,
			PublishedAt:   publishedAt,
			ScheduledFor:  scheduledFor,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			if store.IsForeignKeyViolation(err) {
				return fmt.Errorf("author: %w", ErrNotFound)
			}
			return fmt.Errorf("creating post: %w", err)
		}
		return replaceTags(ctx, q, id, in.Tags)
	})
	if err != nil {
		return 0, err
	}

	slog.Info("post created", "post_id", id, "user_id", in.AuthorID, "status", in.Status)
	s.changed(ctx, "Post created", in.AuthorID, id)
	return id, nil
}

// Update replaces the editable fields of a post and stamps updated_at.
func (s *PostService) Update(ctx context.Context, id int64, in PostInput) error {
	if err := in.normalize(); err != nil {
		return err
	}

	now := s.now().UTC()
	publishedAt, scheduledFor := lifecycle(in, now)

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		n, err := q.UpdatePost(ctx, store.UpdatePostParams{
			Title:         in.Title,
			Content:       in.Content,
			Category:      in.Category,
			Tags:          in.Tags,
			FeaturedImage: util.NullStringFromPtr(in.FeaturedImage),
			KeepImage:     in.FeaturedImage == nil,
			Status:        in.Status,
			PublishedAt:   publishedAt,
			ScheduledFor:  scheduledFor,
			UpdatedAt:     now,
			ID:            id,
		})
		if err != nil {
			return fmt.Errorf("updating post: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return replaceTags(ctx, q, id, in.Tags)
	})
	if err != nil {
		return err
	}

	slog.Info("post updated", "post_id", id, "status", in.Status)
	s.changed(ctx, "Post updated", in.AuthorID, id)
	return nil
}

// replaceTags rebuilds the normalized tag rows of a post.
func replaceTags(ctx context.Context, q *store.Queries, postID int64, tags string) error {
	if err := q.DeletePostTags(ctx, postID); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}

	seen := make(map[string]struct{})
	for _, name := range util.SplitTags(tags) {
		slug := util.TagSlug(name)
		if _, dup := seen[slug]; dup || slug == "" {
			continue
		}
		seen[slug] = struct{}{}

		if err := q.InsertPostTag(ctx, store.PostTag{PostID: postID, Name: name, Slug: slug}); err != nil {
			return fmt.Errorf("inserting tag %q: %w", name, err)
		}
	}
	return nil
}

// Get returns a post joined with its author.
func (s *PostService) Get(ctx context.Context, id int64) (model.PostWithAuthor, error) {
	row, err := s.queries.GetPostWithAuthor(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PostWithAuthor{}, ErrNotFound
	}
	if err != nil {
		return model.PostWithAuthor{}, fmt.Errorf("loading post: %w", err)
	}
	return postFromRow(row), nil
}

// PostFilter narrows List. Empty fields do not filter; filters combine with AND.
type PostFilter struct {
	Status   string
	Category string
	Tag      string
	// Search matches a substring of the title or content.
	Search   string
	AuthorID int64
	// Limit of 0 means no limit.
	Limit  int64
	Offset int64
}

func (s *PostService) listParams(f PostFilter) store.ListPostsParams {
	params := store.ListPostsParams{
		Status:   f.Status,
		Category: strings.TrimSpace(f.Category),
		AuthorID: f.AuthorID,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		if s.opts.TagMatch == TagMatchSubstring {
			params.TagLike = "%" + tag + "%"
		} else {
			params.TagSlug = util.TagSlug(tag)
		}
	}
	if f.Search != "" {
		params.SearchLike = "%" + f.Search + "%"
	}
	return params
}

// List returns posts matching f, newest first.
func (s *PostService) List(ctx context.Context, f PostFilter) ([]model.PostWithAuthor, error) {
	rows, err := s.queries.ListPosts(ctx, s.listParams(f))
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	posts := make([]model.PostWithAuthor, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, postFromRow(r))
	}
	return posts, nil
}

// Count returns how many posts match f. Limit and Offset are ignored.
func (s *PostService) Count(ctx context.Context, f PostFilter) (int64, error) {
	n, err := s.queries.CountPosts(ctx, s.listParams(f))
	if err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

// Related returns up to limit other published posts in the same category.
func (s *PostService) Related(ctx context.Context, id int64, limit int) ([]model.PostWithAuthor, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	candidates, err := s.List(ctx, PostFilter{
		Status:   model.PostStatusPublished,
		Category: post.Category,
		Limit:    int64(limit) + 1,
	})
	if err != nil {
		return nil, err
	}

	related := make([]model.PostWithAuthor, 0, limit)
	for _, p := range candidates {
		if p.ID != id && len(related) < limit {
			related = append(related, p)
		}
	}
	return related, nil
}

// Delete removes a post with its comments and tag rows in one transaction.
func (s *PostService) Delete(ctx context.Context, id int64) error {
	var comments int64
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		if comments, err = q.DeleteCommentsByPost(ctx, id); err != nil {
			return fmt.Errorf("deleting comments: %w", err)
		}
		if err := q.DeletePostTags(ctx, id); err != nil {
			return fmt.Errorf("deleting tags: %w", err)
		}
		n, err := q.DeletePost(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting post: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("post deleted", "post_id", id, "comments_deleted", comments)
	s.changed(ctx, "Post deleted", 0, id)
	return nil
}

// PromoteDue publishes every scheduled post whose time has come, in a
// single statement, and returns how many were promoted. Safe to call
// repeatedly and concurrently.
func (s *PostService) PromoteDue(ctx context.Context) (int64, error) {
	n, err := s.queries.PromoteScheduledPosts(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("promoting scheduled posts: %w", err)
	}
	if n > 0 {
		slog.Info("promoted scheduled posts", "count", n)
		if s.opts.OnChange != nil {
			s.opts.OnChange(ctx)
		}
	}
	return n, nil
}

func (s *PostService) changed(ctx context.Context, message string, userID, postID int64) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(ctx)
	}
	if s.opts.Events != nil {
		_ = s.opts.Events.LogInfo(ctx, model.EventCategoryPost, message, userRef(userID), map[string]any{"post_id": postID})
	}
}

func postFromRow(r store.PostWithAuthorRow) model.PostWithAuthor {
	return model.PostWithAuthor{
		Post: model.Post{
			ID:            r.ID,
			Title:         r.Title,
			Content:       r.Content,
			AuthorID:      r.AuthorID,
			Category:      r.Category,
			Tags:          r.Tags,
			FeaturedImage: util.StringPtr(r.FeaturedImage),
			Status:        r.Status,
			PublishedAt:   util.TimePtr(r.PublishedAt),
			ScheduledFor:  util.TimePtr(r.ScheduledFor),
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
		},
		AuthorName:  r.AuthorName,
		AuthorBio:   util.StringPtr(r.AuthorBio),
		AuthorImage: util.StringPtr(r.AuthorImage),
	}
}
