// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/testutil"
)

func TestNew_DevMode(t *testing.T) {
	db := testutil.DB(t)

	sm := New(db, Config{IsDev: true})

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("expected default cookie name in dev mode")
	}
	if sm.Lifetime != DefaultLifetime {
		t.Errorf("Lifetime = %v, want %v", sm.Lifetime, DefaultLifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite = Lax, got %v", sm.Cookie.SameSite)
	}
}

func TestNew_ProductionMode(t *testing.T) {
	db := testutil.DB(t)

	sm := New(db, Config{Lifetime: time.Hour})

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("expected __Host-session cookie name, got %q", sm.Cookie.Name)
	}
	if sm.Lifetime != time.Hour {
		t.Errorf("Lifetime = %v, want 1h", sm.Lifetime)
	}
}

func TestNew_StoreByDriver(t *testing.T) {
	db := testutil.DB(t)

	if _, ok := New(db, Config{Driver: store.DriverSQLite}).Store.(*sqlite3store.SQLite3Store); !ok {
		t.Error("sqlite driver should use sqlite3store")
	}
	if _, ok := New(nil, Config{Driver: store.DriverMySQL}).Store.(*memstore.MemStore); !ok {
		t.Error("mysql driver should use memstore")
	}
}

func TestLoginIdentityLogout(t *testing.T) {
	sm := New(nil, Config{Driver: store.DriverMySQL, IsDev: true})

	var cookie *http.Cookie
	login := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := Identity(r.Context(), sm); ok {
			t.Error("identity present before login")
		}
		if err := Login(r.Context(), sm, model.Identity{ID: 7, Role: model.RoleAdmin}); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.Cookie.Name {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie after login")
	}

	check := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := Identity(r.Context(), sm)
		if !ok || id.ID != 7 || !id.IsAdmin() {
			t.Errorf("Identity() = %+v, %v", id, ok)
		}
		if err := Logout(r.Context(), sm); err != nil {
			t.Errorf("Logout: %v", err)
		}
		if _, ok := Identity(r.Context(), sm); ok {
			t.Error("identity still present after logout")
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	check.ServeHTTP(httptest.NewRecorder(), req)
}
