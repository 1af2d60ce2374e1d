// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"filippo.io/csrf/gorilla"
)

// CSRF rejects state-changing browser requests that come from another
// origin. The check relies on Sec-Fetch-Site and Origin, so API clients
// that send neither header pass through. trustedOrigins are host:port
// values allowed in addition to the request's own host.
func CSRF(key []byte, trustedOrigins ...string) func(http.Handler) http.Handler {
	opts := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(rejectCrossOrigin))}
	if len(trustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(trustedOrigins))
	}
	return csrf.Protect(key, opts...)
}

// DevOrigins lists the loopback origins a front end served on port uses
// during development.
func DevOrigins(port int) []string {
	p := strconv.Itoa(port)
	return []string{net.JoinHostPort("localhost", p), net.JoinHostPort("127.0.0.1", p)}
}

func rejectCrossOrigin(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin request rejected",
		"category", "auth",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
	)
	writeError(w, http.StatusForbidden, "csrf_failed", "Cross-site request rejected")
}
