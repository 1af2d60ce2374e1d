// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsValidEventLevel(t *testing.T) {
	for _, level := range []string{EventLevelInfo, EventLevelWarning, EventLevelError} {
		if !IsValidEventLevel(level) {
			t.Errorf("IsValidEventLevel(%q) = false", level)
		}
	}
	for _, level := range []string{"", "warn", "debug", "INFO"} {
		if IsValidEventLevel(level) {
			t.Errorf("IsValidEventLevel(%q) = true", level)
		}
	}
}

func TestEvent_MetadataIsEmbedded(t *testing.T) {
	b, err := json.Marshal(Event{Level: EventLevelInfo, Metadata: json.RawMessage(`{"ip":"10.0.0.1"}`)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"metadata":{"ip":"10.0.0.1"}`) {
		t.Errorf("metadata not embedded as an object: %s", b)
	}
	if strings.Contains(string(b), "user_id") {
		t.Errorf("nil user_id should be omitted: %s", b)
	}
}
