// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// apiCSP forbids a browser from loading or framing anything off a JSON
// response.
var apiCSP = strings.Join([]string{
	"default-src 'none'",
	"frame-ancestors 'none'",
	"base-uri 'none'",
	"form-action 'none'",
}, "; ")

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets the hardening headers every API response carries.
// HSTS is sent only outside development, where the server may sit behind
// plain HTTP on localhost.
func SecurityHeaders(isDev bool) func(http.Handler) http.Handler {
	headers := map[string]string{
		"Content-Security-Policy":      apiCSP,
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	if !isDev {
		headers["Strict-Transport-Security"] = hstsValue
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range headers {
				h.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
