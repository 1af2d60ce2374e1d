// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/oblog/internal/middleware"
)

// RouterConfig tunes the HTTP stack around the handlers.
type RouterConfig struct {
	IsDev bool
	// Port is trusted as a same-site origin in development.
	Port int
	// CSRFKey is a 32-byte key for the cross-origin request filter.
	CSRFKey []byte
	// RateLimitRPS and RateLimitBurst bound API requests per client IP.
	// Zero RPS disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
	// RequestTimeout defaults to 30 seconds.
	RequestTimeout time.Duration
	// LogRequests enables the access log.
	LogRequests bool
}

// NewRouter wires the handlers behind the middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	var events middleware.EventLogger
	if h.Events != nil {
		events = h.Events
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.LogRequests {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(chimw.StripSlashes)
	r.Use(middleware.SecurityHeaders(cfg.IsDev))
	r.Use(h.Sessions.LoadAndSave)
	r.Use(middleware.LoadUser(h.Sessions, h.Users))

	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler)
		}
		var origins []string
		if cfg.IsDev {
			origins = middleware.DevOrigins(cfg.Port)
		}
		r.Use(middleware.CSRF(cfg.CSRFKey, origins...))
		r.Use(middleware.PromoteScheduled(h.Posts))

		r.Get("/status", h.Status)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Group(func(r chi.Router) {
				if h.LoginProtection != nil {
					r.Use(h.LoginProtection.Middleware())
				}
				r.Post("/login", h.Login)
			})
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})

		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{id}", h.GetPost)
		r.Get("/posts/{id}/comments", h.ListComments)
		r.Get("/categories", h.ListCategories)
		r.Get("/tags", h.ListTags)
		r.Post("/subscribers", h.Subscribe)
		r.Delete("/subscribers/{token}", h.Unsubscribe)
		r.Post("/contact", h.Contact)

		// Signed-in users
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/posts/{id}/comments", h.CreateComment)
			r.Delete("/comments/{id}", h.DeleteComment)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
		})

		// Admins
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(events))
			r.Post("/posts", h.CreatePost)
			r.Put("/posts/{id}", h.UpdatePost)
			r.Delete("/posts/{id}", h.DeletePost)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", h.DashboardStats)
				r.Get("/users", h.ListUsers)
				r.Put("/users/{id}/role", h.SetUserRole)
				r.Delete("/users/{id}", h.DeleteUser)
				r.Get("/subscribers", h.ListSubscribers)
				r.Delete("/subscribers/{id}", h.DeleteSubscriber)
				r.Get("/messages", h.ListMessages)
				r.Post("/messages/{id}/read", h.MarkMessageRead)
				r.Delete("/messages/{id}", h.DeleteMessage)
				r.Get("/events", h.ListEvents)
				r.Get("/scheduler", h.ListJobs)
				r.Post("/scheduler/run", h.RunScheduler)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}
