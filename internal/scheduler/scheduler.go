// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic background jobs of the blog: the
// scheduled-post sweep and event log retention.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/oblog/internal/model"
)

// Job names.
const (
	JobPromoteScheduled = "promote_scheduled"
	JobPruneEvents      = "prune_events"
)

// ErrUnknownJob is returned by Trigger for a job that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// jobTimeout bounds a single run.
const jobTimeout = 30 * time.Second

// Sweeper promotes scheduled posts whose time has come.
type Sweeper interface {
	PromoteDue(ctx context.Context) (int64, error)
}

// EventRecorder writes and prunes audit events.
type EventRecorder interface {
	LogInfo(ctx context.Context, category, message string, userID *int64, metadata map[string]any) error
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Options configures the scheduler.
type Options struct {
	// PromoteSchedule is the cron expression for the sweep. Empty disables it.
	PromoteSchedule string
	// PruneSchedule is the cron expression for event retention. Empty disables it.
	PruneSchedule string
	// EventRetention is how long events are kept. Zero disables pruning.
	EventRetention time.Duration
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run,omitzero"`
	NextRun     time.Time `json:"next_run,omitzero"`
}

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error
}

// Scheduler handles background jobs on a cron timetable.
type Scheduler struct {
	cron   *cron.Cron
	posts  Sweeper
	events EventRecorder
	opts   Options
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a new scheduler instance. events may be nil.
func New(posts Sweeper, events EventRecorder, logger *slog.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		posts:  posts,
		events: events,
		opts:   opts,
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.opts.PromoteSchedule != "" {
		if err := s.register(JobPromoteScheduled, "Publish scheduled posts that are due", s.opts.PromoteSchedule, s.promote); err != nil {
			return err
		}
	}
	if s.opts.PruneSchedule != "" && s.opts.EventRetention > 0 && s.events != nil {
		if err := s.register(JobPruneEvents, "Delete audit events past retention", s.opts.PruneSchedule, s.prune); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) register(name, description, schedule string, run func(context.Context) error) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", schedule, name, err)
	}

	s.mu.Lock()
	s.jobs[name] = &job{name: name, description: description, schedule: schedule, entryID: entryID, run: run}
	s.mu.Unlock()

	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

// PromoteNow runs the scheduled-post sweep immediately, whether or not the
// cron job is enabled, and returns the number of posts published.
func (s *Scheduler) PromoteNow(ctx context.Context) (int64, error) {
	return s.sweep(ctx)
}

// Trigger runs a registered job immediately.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	s.logger.Info("manually triggering job", "name", name)
	return j.run(ctx)
}

func (s *Scheduler) promote(ctx context.Context) error {
	_, err := s.sweep(ctx)
	return err
}

func (s *Scheduler) sweep(ctx context.Context) (int64, error) {
	n, err := s.posts.PromoteDue(ctx)
	if err != nil {
		return 0, fmt.Errorf("promoting scheduled posts: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	s.logger.Info("published scheduled posts", "count", n)
	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryScheduler,
			fmt.Sprintf("Scheduler published %d post(s)", n), nil,
			map[string]any{"count": n})
	}
	return n, nil
}

func (s *Scheduler) prune(ctx context.Context) error {
	n, err := s.events.DeleteOldEvents(ctx, s.opts.EventRetention)
	if err != nil {
		return fmt.Errorf("pruning events: %w", err)
	}
	if n > 0 {
		s.logger.Info("pruned old events", "count", n, "retention", s.opts.EventRetention)
	}
	return nil
}
