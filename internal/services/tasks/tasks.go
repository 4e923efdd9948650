// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package tasks implements owner-scoped task management.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/taskboard/internal/apperr"
	"codeberg.org/oliverandrich/taskboard/internal/models"
	"codeberg.org/oliverandrich/taskboard/internal/repository"
	"codeberg.org/oliverandrich/taskboard/internal/validation"
)

// TaskStore persists tasks. Every method filters by owner.
type TaskStore interface {
	ListTasks(ctx context.Context, owner string) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, owner string, id int64, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, owner string, id int64) error
}

type titleInput struct {
	Title string `json:"title" validate:"required,max=200"`
}

type Service struct {
	store TaskStore
}

func NewService(store TaskStore) *Service {
	return &Service{store: store}
}

// List returns owner's tasks, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]models.Task, error) {
	tasks, err := s.store.ListTasks(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create adds a task for owner. The title is trimmed before validation.
func (s *Service) Create(ctx context.Context, owner, title string) (*models.Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	task := &models.Task{OwnerEmail: owner, Title: title}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Debug("task_created", "task_id", task.ID, "owner", owner)
	return task, nil
}

// Update applies the present fields of patch to owner's task id.
// Missing and foreign tasks both yield apperr.ErrNotFound.
func (s *Service) Update(ctx context.Context, owner string, id int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}

	task, err := s.store.UpdateTask(ctx, owner, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	slog.Debug("task_updated", "task_id", id, "owner", owner, "changed", !patch.Empty())
	return task, nil
}

// Delete removes owner's task id.
func (s *Service) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteTask(ctx, owner, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	slog.Debug("task_deleted", "task_id", id, "owner", owner)
	return nil
}

func validateTitle(title string) (string, error) {
	in := titleInput{Title: strings.TrimSpace(title)}
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	return in.Title, nil
}
