// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/olegiv/oblog/internal/cache"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/util"
)

// Cache keys for taxonomy listings.
const (
	taxonomyPrefix     = "taxonomy:"
	categoriesCacheKey = taxonomyPrefix + "categories"
	tagsCacheKey       = taxonomyPrefix + "tags"
)

// TaxonomyOptions configures a TaxonomyService.
type TaxonomyOptions struct {
	// DefaultCategories and DefaultTags are returned while no post uses any.
	DefaultCategories []string
	DefaultTags       []string
	// Cache holds computed listings. Nil disables caching.
	Cache cache.Cache
}

// TaxonomyService derives the category and tag listings from posts.
type TaxonomyService struct {
	queries  *store.Queries
	opts     TaxonomyOptions
	listings *cache.Typed[[]string]
}

// NewTaxonomyService creates a new TaxonomyService.
func NewTaxonomyService(db *sql.DB, opts TaxonomyOptions) *TaxonomyService {
	s := &TaxonomyService{queries: store.New(db), opts: opts}
	if opts.Cache != nil {
		s.listings = cache.NewTyped[[]string](opts.Cache, 0)
	}
	return s
}

// Categories returns the distinct categories in use, sorted, or the
// configured defaults when there are none.
func (s *TaxonomyService) Categories(ctx context.Context) ([]string, error) {
	return s.cached(ctx, categoriesCacheKey, s.loadCategories)
}

// Tags returns every distinct tag across all posts, sorted, or the
// configured defaults when there are none.
func (s *TaxonomyService) Tags(ctx context.Context) ([]string, error) {
	return s.cached(ctx, tagsCacheKey, s.loadTags)
}

// Invalidate drops cached listings. PostService calls it after writes.
func (s *TaxonomyService) Invalidate(ctx context.Context) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.DeleteByPrefix(ctx, taxonomyPrefix); err != nil {
		slog.Warn("failed to invalidate taxonomy cache", "category", "cache", "error", err)
	}
}

func (s *TaxonomyService) cached(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if s.listings == nil {
		return load(ctx)
	}
	return s.listings.GetOrLoad(ctx, key, load)
}

func (s *TaxonomyService) loadCategories(ctx context.Context) ([]string, error) {
	categories, err := s.queries.ListDistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if len(categories) == 0 {
		return slices.Clone(s.opts.DefaultCategories), nil
	}
	sortNames(categories)
	return categories, nil
}

func (s *TaxonomyService) loadTags(ctx context.Context) ([]string, error) {
	tagStrings, err := s.queries.ListTagStrings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	seen := make(map[string]struct{})
	var tags []string
	for _, ts := range tagStrings {
		for _, tag := range util.SplitTags(ts) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return slices.Clone(s.opts.DefaultTags), nil
	}
	sortNames(tags)
	return tags, nil
}

// sortNames orders names for display, ignoring case and accents.
func sortNames(names []string) {
	collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics).SortStrings(names)
}
