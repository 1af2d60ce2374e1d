package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/service"
	"github.com/olegiv/oblog/internal/testutil"
)

type fakeSweeper struct {
	n     int64
	err   error
	calls int
}

func (f *fakeSweeper) PromoteDue(context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

type recordedEvent struct {
	category string
	message  string
	metadata map[string]any
}

type fakeEvents struct {
	mu       sync.Mutex
	events   []recordedEvent
	pruned   []time.Duration
	pruneErr error
}

func (f *fakeEvents) LogInfo(_ context.Context, category, message string, _ *int64, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{category, message, metadata})
	return nil
}

func (f *fakeEvents) DeleteOldEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, olderThan)
	return 3, f.pruneErr
}

func TestNew(t *testing.T) {
	s := New(&fakeSweeper{}, nil, nil, Options{})
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger == nil {
		t.Error("New() did not default the logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeSweeper{}, &fakeEvents{}, testutil.Logger(t), Options{
		PromoteSchedule: "* * * * *",
		PruneSchedule:   "@daily",
		EventRetention:  24 * time.Hour,
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("Jobs() = %d entries, want 2", len(jobs))
	}
	if jobs[0].Name != JobPromoteScheduled || jobs[1].Name != JobPruneEvents {
		t.Errorf("Jobs() names = %q, %q", jobs[0].Name, jobs[1].Name)
	}
	if jobs[0].NextRun.IsZero() {
		t.Error("NextRun not populated for running scheduler")
	}
}

func TestScheduler_DisabledJobs(t *testing.T) {
	s := New(&fakeSweeper{}, nil, testutil.Logger(t), Options{
		PruneSchedule:  "@daily",
		EventRetention: time.Hour,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if got := len(s.Jobs()); got != 0 {
		t.Errorf("Jobs() = %d, want 0 with empty promote schedule and no event recorder", got)
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(&fakeSweeper{}, nil, testutil.Logger(t), Options{PromoteSchedule: "every minute"})
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() accepted an invalid cron expression")
	}
}

func TestPromoteNow_RecordsEvent(t *testing.T) {
	sweeper := &fakeSweeper{n: 2}
	events := &fakeEvents{}
	s := New(sweeper, events, testutil.Logger(t), Options{})

	n, err := s.PromoteNow(context.Background())
	if err != nil {
		t.Fatalf("PromoteNow() error = %v", err)
	}
	if n != 2 {
		t.Errorf("PromoteNow() = %d, want 2", n)
	}
	if len(events.events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events.events))
	}
	if events.events[0].category != model.EventCategoryScheduler {
		t.Errorf("event category = %q", events.events[0].category)
	}
	if events.events[0].metadata["count"] != int64(2) {
		t.Errorf("event metadata = %v", events.events[0].metadata)
	}
}

func TestPromoteNow_NothingDue(t *testing.T) {
	events := &fakeEvents{}
	s := New(&fakeSweeper{}, events, testutil.Logger(t), Options{})

	n, err := s.PromoteNow(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("PromoteNow() = %d, %v", n, err)
	}
	if len(events.events) != 0 {
		t.Errorf("recorded %d events for an empty sweep", len(events.events))
	}
}

func TestPromoteNow_Error(t *testing.T) {
	boom := errors.New("boom")
	s := New(&fakeSweeper{err: boom}, nil, testutil.Logger(t), Options{})

	if _, err := s.PromoteNow(context.Background()); !errors.Is(err, boom) {
		t.Errorf("PromoteNow() error = %v, want wrapped boom", err)
	}
}

func TestTrigger(t *testing.T) {
	events := &fakeEvents{}
	s := New(&fakeSweeper{}, events, testutil.Logger(t), Options{
		PruneSchedule:  "@daily",
		EventRetention: 48 * time.Hour,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if err := s.Trigger(context.Background(), JobPruneEvents); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(events.pruned) != 1 || events.pruned[0] != 48*time.Hour {
		t.Errorf("pruned = %v", events.pruned)
	}

	if err := s.Trigger(context.Background(), "nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Trigger(nope) error = %v, want ErrUnknownJob", err)
	}
}

func TestPromoteNow_AgainstDatabase(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()

	authorID := testutil.CreateUser(t, db, "author", model.RoleAdmin)
	events := service.NewEventService(db)
	posts := service.NewPostService(db, service.PostOptions{Events: events})

	due := time.Now().Add(-time.Minute)
	id, err := posts.Create(ctx, service.PostInput{
		Title:        "Due",
		Content:      "body",
		Category:     "Tech",
		AuthorID:     authorID,
		Status:       model.PostStatusScheduled,
		ScheduledFor: &due,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s := New(posts, events, testutil.Logger(t), Options{})
	n, err := s.PromoteNow(ctx)
	if err != nil || n != 1 {
		t.Fatalf("PromoteNow() = %d, %v; want 1, nil", n, err)
	}

	p, err := posts.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Status != model.PostStatusPublished || p.PublishedAt == nil {
		t.Errorf("post after sweep: status=%q published_at=%v", p.Status, p.PublishedAt)
	}

	_, total, err := events.List(ctx, service.EventFilter{Category: model.EventCategoryScheduler})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 {
		t.Errorf("scheduler events = %d, want 1", total)
	}

	if n, _ := s.PromoteNow(ctx); n != 0 {
		t.Errorf("second PromoteNow() = %d, want 0", n)
	}
}
