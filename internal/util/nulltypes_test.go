// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
	"time"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNullStringFromPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected sql.NullString
	}{
		{"nil pointer", nil, sql.NullString{}},
		{"empty string", ptr(""), sql.NullString{String: "", Valid: true}},
		{"value", ptr("bio"), sql.NullString{String: "bio", Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NullStringFromPtr(tt.input); got != tt.expected {
				t.Errorf("NullStringFromPtr() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Error("empty string should be NULL")
	}
	if got := NullStringFromValue("x"); !got.Valid || got.String != "x" {
		t.Errorf("NullStringFromValue(x) = %v", got)
	}
}

func TestNullTimeFromPtr(t *testing.T) {
	if got := NullTimeFromPtr(nil); got.Valid {
		t.Error("nil pointer should be NULL")
	}

	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2026, 1, 2, 10, 0, 0, 0, loc)
	got := NullTimeFromPtr(&in)
	if !got.Valid {
		t.Fatal("expected valid NullTime")
	}
	if got.Time.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Time.Location())
	}
	if !got.Time.Equal(in) {
		t.Errorf("time = %v, want %v", got.Time, in)
	}
}

func TestPtrHelpers(t *testing.T) {
	if StringPtr(sql.NullString{}) != nil {
		t.Error("StringPtr(NULL) should be nil")
	}
	if p := StringPtr(sql.NullString{String: "a", Valid: true}); p == nil || *p != "a" {
		t.Errorf("StringPtr = %v", p)
	}
	if TimePtr(sql.NullTime{}) != nil {
		t.Error("TimePtr(NULL) should be nil")
	}
	now := time.Now()
	if p := TimePtr(sql.NullTime{Time: now, Valid: true}); p == nil || !p.Equal(now) {
		t.Errorf("TimePtr = %v", p)
	}
}
