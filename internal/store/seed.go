// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog/internal/auth"
	"github.com/olegiv/oblog/internal/model"
)

// Default admin credentials used when the environment does not override them.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@blog.local"
)

// SeedConfig describes the admin account created on first startup.
type SeedConfig struct {
	Username string
	Password string
	Email    string
	// Hasher produces the stored credential. Defaults to auth.HashPassword.
	Hasher auth.Hasher
}

func (c SeedConfig) withDefaults() SeedConfig {
	if c.Username == "" {
		c.Username = DefaultAdminUsername
	}
	if c.Password == "" {
		c.Password = DefaultAdminPassword
	}
	if c.Email == "" {
		c.Email = DefaultAdminEmail
	}
	if c.Hasher == nil {
		c.Hasher = auth.HashPassword
	}
	return c
}

// Seed creates the admin account once. Running it again is a no-op as long
// as a user with the configured username exists.
func Seed(ctx context.Context, db *sql.DB, cfg SeedConfig) error {
	cfg = cfg.withDefaults()
	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, cfg.Username)
	if err == nil {
		slog.Debug("admin user already exists, skipping seed", "username", cfg.Username)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := cfg.Hasher(cfg.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	id, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     cfg.Username,
		PasswordHash: passwordHash,
		Email:        cfg.Email,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", id, "username", cfg.Username, "email", cfg.Email)
	return nil
}
