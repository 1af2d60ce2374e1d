package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog/internal/auth"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
)

func TestRegisterThenAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		username, password, email string
	}{
		{"alice", "pw1", "alice@x.com"},
		{"bob", "correct horse", "bob@example.org"},
		{"carol-1", "ünïcödé", "carol.1@sub.example.co"},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			id, err := env.users.Register(ctx, RegisterParams{Username: tt.username, Password: tt.password, Email: tt.email})
			require.NoError(t, err)

			ident, err := env.users.Authenticate(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, id, ident.ID)
			assert.Equal(t, model.RoleUser, ident.Role)
		})
	}
}

func TestRegister_ConflictDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterParams{Username: "alice", Password: "pw1", Email: "alice@x.com"})
	require.NoError(t, err)

	before, err := env.users.List(ctx)
	require.NoError(t, err)

	_, err = env.users.Register(ctx, RegisterParams{Username: "alice", Password: "other", Email: "new@x.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.users.Register(ctx, RegisterParams{Username: "alice2", Password: "other", Email: "alice@x.com"})
	assert.ErrorIs(t, err, ErrConflict)

	after, err := env.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	// The original password still works.
	_, err = env.users.Authenticate(ctx, "alice", "pw1")
	assert.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		p     RegisterParams
		field string
	}{
		{"missing username", RegisterParams{Password: "x", Email: "a@b.co"}, "username"},
		{"missing password", RegisterParams{Username: "u", Email: "a@b.co"}, "password"},
		{"bad email", RegisterParams{Username: "u", Password: "x", Email: "not-an-email"}, "email"},
		{"email without tld", RegisterParams{Username: "u", Password: "x", Email: "a@b"}, "email"},
		{"bad role", RegisterParams{Username: "u", Password: "x", Email: "a@b.co", Role: "editor"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.p)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestAuthenticate_WrongPasswordLooksLikeUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", model.RoleUser)

	_, wrongPw := env.users.Authenticate(ctx, "alice", "nope")
	_, unknown := env.users.Authenticate(ctx, "mallory", "nope")

	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestAuthenticate_UpgradesLegacyDigest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	users := NewUserService(env.db, UserOptions{})
	id, err := NewUserService(env.db, UserOptions{Hasher: env.users.opts.Hasher}).Register(ctx, RegisterParams{
		Username: "legacy", Password: "pw1", Email: "legacy@x.com",
	})
	require.NoError(t, err)

	u, err := users.GetProfile(ctx, id)
	require.NoError(t, err)
	require.True(t, auth.IsDigest(u.PasswordHash))

	_, err = users.Authenticate(ctx, "legacy", "pw1")
	require.NoError(t, err)

	u, err = users.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"), "hash was not upgraded: %s", u.PasswordHash)

	_, err = users.Authenticate(ctx, "legacy", "pw1")
	assert.NoError(t, err, "upgraded hash must still verify")
}

func TestUpdateProfile_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "alice", model.RoleUser)

	bio := "physicist"
	require.NoError(t, env.users.UpdateProfile(ctx, id, ProfileUpdate{Bio: &bio}))

	img := "alice.png"
	require.NoError(t, env.users.UpdateProfile(ctx, id, ProfileUpdate{ProfileImage: &img}))

	u, err := env.users.GetProfile(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u.Bio)
	assert.Equal(t, "physicist", *u.Bio)
	require.NotNil(t, u.ProfileImage)
	assert.Equal(t, "alice.png", *u.ProfileImage)

	assert.ErrorIs(t, env.users.UpdateProfile(ctx, 9999, ProfileUpdate{Bio: &bio}), ErrNotFound)
}

func TestGetProfile_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.GetProfile(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "alice", model.RoleUser)

	require.NoError(t, env.users.SetRole(ctx, id, model.RoleAdmin))
	u, err := env.users.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	require.NoError(t, env.users.SetRole(ctx, id, model.RoleUser))
	assert.ErrorIs(t, env.users.SetRole(ctx, env.adminID, model.RoleUser), ErrForbidden, "last admin must not be demoted")
	assert.True(t, IsValidation(env.users.SetRole(ctx, id, "owner")))
	assert.ErrorIs(t, env.users.SetRole(ctx, 9999, model.RoleUser), ErrNotFound)
}

func TestDeleteUser_ReassignsPostsAndRemovesComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", model.RoleUser)

	alicePost := env.createPost(t, PostInput{Title: "By Alice", AuthorID: alice, Status: model.PostStatusPublished})
	adminPost := env.createPost(t, PostInput{Title: "By Admin", Status: model.PostStatusPublished})
	_, err := env.comments.Add(ctx, adminPost, alice, "first!")
	require.NoError(t, err)
	_, err = env.comments.Add(ctx, alicePost, env.adminID, "welcome")
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, alice))

	_, err = env.users.GetProfile(ctx, alice)
	assert.ErrorIs(t, err, ErrNotFound)

	post, err := env.posts.Get(ctx, alicePost)
	require.NoError(t, err)
	assert.Equal(t, env.adminID, post.AuthorID)
	assert.Equal(t, "admin", post.AuthorName)

	byAlice, err := env.comments.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, byAlice)

	onAlicePost, err := env.comments.List(ctx, alicePost)
	require.NoError(t, err)
	assert.Len(t, onAlicePost, 1, "comments by others survive on reassigned posts")

	events, _, err := env.events.List(ctx, EventFilter{Category: model.EventCategoryUser})
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestDeleteUser_DefaultAuthorResolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	second := env.register(t, "second-admin", model.RoleAdmin)
	bob := env.register(t, "bob", model.RoleUser)
	bobPost := env.createPost(t, PostInput{Title: "Bob", AuthorID: bob})

	assert.ErrorIs(t, env.users.Delete(ctx, env.adminID), ErrForbidden, "default author cannot be deleted")

	heir, err := env.users.DefaultAuthor(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.adminID, heir.ID)

	// With a preferred username that does not exist, the oldest admin inherits.
	users := NewUserService(env.db, UserOptions{DefaultAuthor: "nobody"})
	require.NoError(t, users.Delete(ctx, bob))
	post, err := env.posts.Get(ctx, bobPost)
	require.NoError(t, err)
	assert.Equal(t, env.adminID, post.AuthorID)

	require.NoError(t, users.Delete(ctx, second))
	assert.ErrorIs(t, users.Delete(ctx, 9999), ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "alice", model.RoleUser)

	var ve *ValidationError
	require.ErrorAs(t, env.users.ChangePassword(ctx, id, "wrong", "new"), &ve)
	assert.Equal(t, "is incorrect", ve.Fields["current_password"])
	assert.True(t, IsValidation(env.users.ChangePassword(ctx, id, "pw-alice", "")))

	require.NoError(t, env.users.ChangePassword(ctx, id, "pw-alice", "new"))
	_, err := env.users.Authenticate(ctx, "alice", "new")
	assert.NoError(t, err)
	_, err = env.users.Authenticate(ctx, "alice", "pw-alice")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSeededAdminCanLogIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, env.db, store.SeedConfig{Username: "root", Password: "admin123", Email: "root@x.com"}))
	ident, err := NewUserService(env.db, UserOptions{}).Authenticate(ctx, "root", "admin123")
	require.NoError(t, err)
	assert.True(t, ident.IsAdmin())
}
