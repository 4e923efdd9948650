// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Task is a single to-do item owned by the identity in OwnerEmail.
type Task struct { //nolint:govet // fieldalignment not critical for models
	ID         int64     `db:"id" json:"id"`
	OwnerEmail string    `db:"owner_email" json:"-"`
	Title      string    `db:"title" json:"title"`
	Done       bool      `db:"done" json:"done"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TaskPatch carries a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Done == nil
}
