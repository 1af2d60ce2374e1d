// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Role         string
	Bio          sql.NullString
	ProfileImage sql.NullString
	CreatedAt    time.Time
}

type Post struct {
	ID            int64
	Title         string
	Content       string
	AuthorID      int64
	Category      string
	Tags          string
	FeaturedImage sql.NullString
	Status        string
	PublishedAt   sql.NullTime
	ScheduledFor  sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PostWithAuthorRow struct {
	Post
	AuthorName  string
	AuthorBio   sql.NullString
	AuthorImage sql.NullString
}

type PostTag struct {
	PostID int64
	Name   string
	Slug   string
}

type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

type CommentWithAuthorRow struct {
	Comment
	Username     string
	ProfileImage sql.NullString
}

type Subscriber struct {
	ID           int64
	Email        string
	Name         sql.NullString
	Token        string
	SubscribedAt time.Time
}

type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Subject   string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}
