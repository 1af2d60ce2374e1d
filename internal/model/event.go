// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"slices"
	"time"
)

// Event levels, mirroring the slog levels the event log handler records.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryPost      = "post"
	EventCategoryUser      = "user"
	EventCategoryComment   = "comment"
	EventCategoryScheduler = "scheduler"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
)

// IsValidEventLevel reports whether level is one the event log stores.
func IsValidEventLevel(level string) bool {
	return slices.Contains([]string{EventLevelInfo, EventLevelWarning, EventLevelError}, level)
}

// Event is one audit log entry. Metadata is a JSON object and is emitted
// as-is.
type Event struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}
