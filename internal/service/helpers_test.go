package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog/internal/auth"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/testutil"
)

type testEnv struct {
	db       *sql.DB
	users    *UserService
	posts    *PostService
	comments *CommentService
	subs     *SubscriberService
	messages *MessageService
	stats    *StatsService
	taxonomy *TaxonomyService
	events   *EventService
	adminID  int64
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithTagMatch(t, TagMatchExact)
}

func newTestEnvWithTagMatch(t *testing.T, tagMatch string) *testEnv {
	t.Helper()

	db := testutil.DB(t)

	mem := testutil.Cache(t)

	events := NewEventService(db)
	taxonomy := NewTaxonomyService(db, TaxonomyOptions{
		DefaultCategories: []string{"Technology", "AI"},
		DefaultTags:       []string{"quantum", "ai"},
		Cache:             mem,
	})

	env := &testEnv{
		db: db,
		// sha256 keeps the fixtures fast; argon2 paths are covered separately.
		users: NewUserService(db, UserOptions{
			Hasher:           func(p string) (string, error) { return auth.Digest(p), nil },
			KeepLegacyHashes: true,
			DefaultAuthor:    "admin",
			Events:           events,
		}),
		posts:    NewPostService(db, PostOptions{TagMatch: tagMatch, Events: events, OnChange: taxonomy.Invalidate}),
		comments: NewCommentService(db),
		subs:     NewSubscriberService(db),
		messages: NewMessageService(db),
		stats:    NewStatsService(db),
		taxonomy: taxonomy,
		events:   events,
	}

	env.adminID = env.register(t, "admin", model.RoleAdmin)
	return env
}

func (e *testEnv) register(t *testing.T, username, role string) int64 {
	t.Helper()
	id, err := e.users.Register(context.Background(), RegisterParams{
		Username: username,
		Password: "pw-" + username,
		Email:    username + "@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) createPost(t *testing.T, in PostInput) int64 {
	t.Helper()
	if in.AuthorID == 0 {
		in.AuthorID = e.adminID
	}
	if in.Content == "" {
		in.Content = "Body of " + in.Title
	}
	if in.Category == "" {
		in.Category = "Technology"
	}
	id, err := e.posts.Create(context.Background(), in)
	require.NoError(t, err)
	return id
}
