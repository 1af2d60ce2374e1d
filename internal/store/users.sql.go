// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, username, password_hash, email, role, bio, profile_image, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &u.Bio, &u.ProfileImage, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Username     string
	PasswordHash string
	Email        string
	Role         string
	Bio          sql.NullString
	CreatedAt    time.Time
}

const createUser = `INSERT INTO users (username, password_hash, email, role, bio, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createUser,
		arg.Username, arg.PasswordHash, arg.Email, arg.Role, arg.Bio, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const countUsersByUsernameOrEmail = `SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`

func (q *Queries) CountUsersByUsernameOrEmail(ctx context.Context, username, email string) (int64, error) {
	return q.count(ctx, countUsersByUsernameOrEmail, username, email)
}

// The preferred username sorts first; otherwise the oldest admin wins.
const getDefaultAdmin = `SELECT ` + userColumns + ` FROM users
WHERE role = 'admin'
ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END, id ASC
LIMIT 1`

func (q *Queries) GetDefaultAdmin(ctx context.Context, preferredUsername string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getDefaultAdmin, preferredUsername))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type UpdateUserProfileParams struct {
	Bio          sql.NullString
	SetBio       bool
	ProfileImage sql.NullString
	SetImage     bool
	ID           int64
}

// Unflagged columns keep their current value.
const updateUserProfile = `UPDATE users
SET bio = CASE WHEN ? THEN ? ELSE bio END,
    profile_image = CASE WHEN ? THEN ? ELSE profile_image END
WHERE id = ?`

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserProfile,
		arg.SetBio, arg.Bio, arg.SetImage, arg.ProfileImage, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateUserRole = `UPDATE users SET role = ? WHERE id = ?`

func (q *Queries) UpdateUserRole(ctx context.Context, id int64, role string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserRole, role, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateUserPassword = `UPDATE users SET password_hash = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, id)
	return err
}

const countUsersByRole = `SELECT COUNT(*) FROM users WHERE role = ?`

func (q *Queries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return q.count(ctx, countUsersByRole, role)
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
