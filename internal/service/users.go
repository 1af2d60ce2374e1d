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
	"sync"
	"time"

	"github.com/olegiv/oblog/internal/auth"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/util"
)

// dummyHash is checked against for unknown usernames so a failed login
// costs the same whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("oblog-dummy-password")
	return h
})

// UserOptions configures a UserService.
type UserOptions struct {
	// Hasher produces stored credentials. Defaults to auth.HashPassword.
	Hasher auth.Hasher
	// KeepLegacyHashes disables the upgrade of legacy digests on login.
	KeepLegacyHashes bool
	// DefaultAuthor is the preferred username of the admin who inherits
	// posts of deleted users.
	DefaultAuthor string
	Events        *EventService
}

// UserService manages accounts.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
	opts    UserOptions
	now     func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, opts UserOptions) *UserService {
	if opts.Hasher == nil {
		opts.Hasher = auth.HashPassword
	}
	if opts.DefaultAuthor == "" {
		opts.DefaultAuthor = store.DefaultAdminUsername
	}
	return &UserService{
		db:      db,
		queries: store.New(db),
		opts:    opts,
		now:     time.Now,
	}
}

// RegisterParams holds the fields of a new account.
type RegisterParams struct {
	Username string
	Password string
	Email    string
	// Role defaults to model.RoleUser.
	Role string
	Bio  *string
}

// Register creates an account. It returns ErrConflict when the username or
// email is taken, leaving the store untouched.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (int64, error) {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	if p.Role == "" {
		p.Role = model.RoleUser
	}

	v := validator{}
	v.require("username", p.Username)
	v.require("password", p.Password)
	v.require("email", p.Email)
	v.check(util.IsValidEmail(p.Email), "email", "is not a valid email address")
	v.check(model.IsValidRole(p.Role), "role", "must be user or admin")
	if err := v.err(); err != nil {
		return 0, err
	}

	n, err := s.queries.CountUsersByUsernameOrEmail(ctx, p.Username, p.Email)
	if err != nil {
		return 0, fmt.Errorf("checking existing user: %w", err)
	}
	if n > 0 {
		return 0, ErrConflict
	}

	hash, err := s.opts.Hasher(p.Password)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	id, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     p.Username,
		PasswordHash: hash,
		Email:        p.Email,
		Role:         p.Role,
		Bio:          util.NullStringFromPtr(p.Bio),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user registered", "user_id", id, "username", p.Username, "role", p.Role)
	return id, nil
}

// Authenticate checks credentials. Unknown usernames and wrong passwords
// both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.Identity, error) {
	u, err := s.queries.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = auth.CheckPassword(password, dummyHash())
		return model.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil {
		slog.Warn("stored credential is malformed", "category", model.EventCategoryAuth, "user_id", u.ID, "error", err)
		return model.Identity{}, ErrInvalidCredentials
	}
	if !ok {
		return model.Identity{}, ErrInvalidCredentials
	}

	if !s.opts.KeepLegacyHashes && auth.NeedsRehash(u.PasswordHash) {
		s.upgradeHash(ctx, u.ID, password)
	}

	return model.Identity{ID: u.ID, Role: u.Role}, nil
}

func (s *UserService) upgradeHash(ctx context.Context, id int64, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.queries.UpdateUserPassword(ctx, id, hash)
	}
	if err != nil {
		slog.Warn("failed to upgrade password hash", "category", model.EventCategoryAuth, "user_id", id, "error", err)
		return
	}
	slog.Info("upgraded password hash", "user_id", id)
}

// GetProfile returns the user with the given id.
func (s *UserService) GetProfile(ctx context.Context, id int64) (model.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return userFromRow(u), nil
}

// List returns all users, newest first.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return users, nil
}

// ProfileUpdate carries the optional profile fields. Nil fields are left
// unchanged; a pointer to "" clears the field.
type ProfileUpdate struct {
	Bio          *string
	ProfileImage *string
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, p ProfileUpdate) error {
	n, err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		Bio:          util.NullStringFromValue(deref(p.Bio)),
		SetBio:       p.Bio != nil,
		ProfileImage: util.NullStringFromValue(deref(p.ProfileImage)),
		SetImage:     p.ProfileImage != nil,
		ID:           id,
	})
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole changes a user's role. Demoting the last admin is refused.
func (s *UserService) SetRole(ctx context.Context, id int64, role string) error {
	if !model.IsValidRole(role) {
		return &ValidationError{Fields: map[string]string{"role": "must be user or admin"}}
	}

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		u, err := q.GetUserByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if u.Role == model.RoleAdmin && role != model.RoleAdmin {
			admins, err := q.CountUsersByRole(ctx, model.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return fmt.Errorf("%w: cannot demote the last admin", ErrForbidden)
			}
		}

		_, err = q.UpdateUserRole(ctx, id, role)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("user role changed", "user_id", id, "role", role)
	return nil
}

// ChangePassword replaces the password after verifying the current one. A
// wrong current password is reported as a validation error on
// current_password.
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	v := validator{}
	v.require("new_password", next)
	if err := v.err(); err != nil {
		return err
	}

	u, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	if ok, _ := auth.CheckPassword(current, u.PasswordHash); !ok {
		return &ValidationError{Fields: map[string]string{"current_password": "is incorrect"}}
	}

	hash, err := s.opts.Hasher(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	slog.Info("password changed", "user_id", id)
	return nil
}

// DefaultAuthor resolves the admin account that inherits posts of deleted
// users: the admin with the configured username, else the oldest admin.
func (s *UserService) DefaultAuthor(ctx context.Context) (model.User, error) {
	u, err := s.queries.GetDefaultAdmin(ctx, s.opts.DefaultAuthor)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("resolving default author: %w", err)
	}
	return userFromRow(u), nil
}

// Delete removes a user in one transaction: their comments go first, their
// posts move to the default author, then the user row is removed. The
// default author itself cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	var comments, posts int64

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetUserByID(ctx, id); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		heir, err := q.GetDefaultAdmin(ctx, s.opts.DefaultAuthor)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: no admin account to inherit posts", ErrForbidden)
		}
		if err != nil {
			return err
		}
		if heir.ID == id {
			return fmt.Errorf("%w: cannot delete the default author", ErrForbidden)
		}

		if comments, err = q.DeleteCommentsByUser(ctx, id); err != nil {
			return fmt.Errorf("deleting comments: %w", err)
		}
		if posts, err = q.ReassignPosts(ctx, id, heir.ID); err != nil {
			return fmt.Errorf("reassigning posts: %w", err)
		}
		if _, err = q.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id, "comments_deleted", comments, "posts_reassigned", posts)
	if s.opts.Events != nil {
		_ = s.opts.Events.LogInfo(ctx, model.EventCategoryUser, "User deleted", nil, map[string]any{
			"deleted_user_id":  id,
			"comments_deleted": comments,
			"posts_reassigned": posts,
		})
	}
	return nil
}

func userFromRow(u store.User) model.User {
	return model.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Email:        u.Email,
		Role:         u.Role,
		Bio:          util.StringPtr(u.Bio),
		ProfileImage: util.StringPtr(u.ProfileImage),
		CreatedAt:    u.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
