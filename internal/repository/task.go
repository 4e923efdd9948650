// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/models"
)

const taskColumns = `id, owner_email, title, done, created_at`

// ListTasks returns owner's tasks, newest first. It never returns nil.
func (r *Repository) ListTasks(ctx context.Context, owner string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.SelectContext(ctx, &tasks,
		r.q(`SELECT `+taskColumns+` FROM tasks WHERE owner_email = ? ORDER BY id DESC`), owner)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask inserts task and fills in its ID and CreatedAt.
func (r *Repository) CreateTask(ctx context.Context, task *models.Task) error {
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := r.db.QueryRowxContext(ctx,
		r.q(`INSERT INTO tasks (owner_email, title, done, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		task.OwnerEmail, task.Title, task.Done, createdAt,
	).Scan(&id)
	if err != nil {
		return wrapError(err)
	}

	task.ID = id
	task.CreatedAt = createdAt
	return nil
}

// UpdateTask applies patch to the task with id owned by owner in a single
// statement and returns the stored result. Absent and foreign tasks both
// yield ErrNotFound.
func (r *Repository) UpdateTask(ctx context.Context, owner string, id int64, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	err := r.db.GetContext(ctx, &task,
		r.q(`UPDATE tasks SET title = COALESCE(?, title), done = COALESCE(?, done)
			WHERE id = ? AND owner_email = ? RETURNING `+taskColumns),
		nullable(patch.Title), nullable(patch.Done), id, owner)
	if err != nil {
		return nil, wrapError(err)
	}
	return &task, nil
}

// DeleteTask removes the task with id owned by owner.
func (r *Repository) DeleteTask(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM tasks WHERE id = ? AND owner_email = ?`), id, owner)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
