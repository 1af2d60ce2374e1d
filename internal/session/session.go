// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wires the scs session manager and stores the logged-in
// identity in it.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
)

// Session keys.
const (
	keyUserID = "user_id"
	keyRole   = "role"
)

// DefaultLifetime is how long an idle login lasts.
const DefaultLifetime = 24 * time.Hour

// Config configures the session manager.
type Config struct {
	// Driver selects the backing store: sessions live in the database for
	// SQLite and in process memory for MySQL.
	Driver   string
	Lifetime time.Duration
	IsDev    bool
}

// New creates a new session manager.
func New(db *sql.DB, cfg Config) *scs.SessionManager {
	sm := scs.New()

	switch cfg.Driver {
	case "", store.DriverSQLite:
		sm.Store = sqlite3store.New(db)
	default:
		sm.Store = memstore.New()
	}

	sm.Lifetime = cfg.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = DefaultLifetime
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !cfg.IsDev
	if !cfg.IsDev {
		// __Host- requires Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Login renews the session token and stores id in the session.
func Login(ctx context.Context, sm *scs.SessionManager, id model.Identity) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, keyUserID, id.ID)
	sm.Put(ctx, keyRole, id.Role)
	return nil
}

// Logout destroys the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// Identity returns the logged-in identity, if any.
func Identity(ctx context.Context, sm *scs.SessionManager) (model.Identity, bool) {
	id := sm.GetInt64(ctx, keyUserID)
	if id == 0 {
		return model.Identity{}, false
	}
	return model.Identity{ID: id, Role: sm.GetString(ctx, keyRole)}, true
}

// SetRole updates the role cached in the session after it changes.
func SetRole(ctx context.Context, sm *scs.SessionManager, role string) {
	sm.Put(ctx, keyRole, role)
}
