// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/models"
)

// CreateUser inserts user and fills in its ID and CreatedAt.
// A duplicate email yields ErrDuplicate, also when two inserts race.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := r.db.QueryRowxContext(ctx,
		r.q(`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
		user.Email, user.PasswordHash, createdAt,
	).Scan(&id)
	if err != nil {
		return wrapError(err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

// GetUserByEmail retrieves a user by exact (case-sensitive) email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		r.q(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}
