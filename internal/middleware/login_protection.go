// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	maxLockout      = 24 * time.Hour
	pruneAccountsAt = 10 * time.Minute
)

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login requests per second per IP (default 0.5).
	IPRateLimit float64
	// IPBurst is the burst allowed per IP (default 5).
	IPBurst int
	// MaxFailedAttempts within AttemptWindow locks the account (default 5).
	MaxFailedAttempts int
	// LockoutDuration is the first lockout; each further lockout doubles it,
	// up to a day (default 15 minutes).
	LockoutDuration time.Duration
	// AttemptWindow bounds how far back failures are counted (default 15 minutes).
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	d := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = d.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = d.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = d.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = d.AttemptWindow
	}
	return c
}

// accountState tracks failures for one username.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection throttles the login endpoint per IP and locks accounts
// after repeated failed logins. State is kept in memory only.
type LoginProtection struct {
	cfg LoginProtectionConfig
	ips *ipLimiters
	now func() time.Time

	mu        sync.Mutex
	accounts  map[string]*accountState
	lastPrune time.Time
}

// NewLoginProtection creates a new login protection instance. Zero config
// fields take their defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	return &LoginProtection{
		cfg:      cfg,
		ips:      newIPLimiters(cfg.IPRateLimit, cfg.IPBurst),
		now:      time.Now,
		accounts: make(map[string]*accountState),
	}
}

// AllowIP reports whether ip may attempt another login now.
func (lp *LoginProtection) AllowIP(ip string) bool {
	return lp.ips.allow(ip)
}

// IsAccountLocked reports whether username is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[username]
	if !ok {
		return false, 0
	}
	if remaining := st.lockedUntil.Sub(lp.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailedAttempt counts a failed login. When it reaches the limit the
// account is locked and the lock duration is returned.
func (lp *LoginProtection) RecordFailedAttempt(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	lp.pruneLocked(now)

	st, ok := lp.accounts[username]
	if !ok {
		st = &accountState{}
		lp.accounts[username] = st
	}
	if st.failures == 0 || now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		st.failures = 0
		st.windowStart = now
	}
	st.failures++

	if st.failures < lp.cfg.MaxFailedAttempts {
		slog.Debug("failed login recorded", "username", username, "failures", st.failures)
		return false, 0
	}

	d := lockoutFor(lp.cfg.LockoutDuration, st.lockouts)
	st.lockedUntil = now.Add(d)
	st.lockouts++
	st.failures = 0

	slog.Warn("account locked due to failed attempts", "username", username, "lockouts", st.lockouts, "duration", d)
	return true, d
}

// RecordSuccessfulLogin forgets the failure history of username.
func (lp *LoginProtection) RecordSuccessfulLogin(username string) {
	lp.mu.Lock()
	delete(lp.accounts, username)
	lp.mu.Unlock()
}

// RemainingAttempts returns how many more failures username may have
// before it is locked.
func (lp *LoginProtection) RemainingAttempts(username string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[username]
	if !ok || lp.now().Sub(st.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-st.failures, 0)
}

// pruneLocked drops accounts with no active lock and no recent failures.
// Callers hold mu.
func (lp *LoginProtection) pruneLocked(now time.Time) {
	if now.Sub(lp.lastPrune) < pruneAccountsAt {
		return
	}
	lp.lastPrune = now
	for username, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, username)
		}
	}
}

// lockoutFor doubles base for every earlier lockout, capped at maxLockout.
func lockoutFor(base time.Duration, lockouts int) time.Duration {
	d := base
	for range lockouts {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// Middleware applies the per-IP login rate limit to POST requests.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !lp.AllowIP(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many login attempts. Please wait and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
