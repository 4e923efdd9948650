// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/taskboard/internal/models"
	"codeberg.org/oliverandrich/taskboard/internal/services/tasks"
	"github.com/labstack/echo/v4"
)

// TaskHandlers contains handlers for the /tasks routes.
// All of them expect middleware.RequireBearer to have run.
type TaskHandlers struct {
	tasks *tasks.Service
}

// NewTasks creates a new TaskHandlers instance.
func NewTasks(svc *tasks.Service) *TaskHandlers {
	return &TaskHandlers{tasks: svc}
}

// CreateTaskRequest is accepted as JSON, form data or query parameters.
type CreateTaskRequest struct {
	Title string `json:"title" form:"title"`
}

// OKResponse acknowledges a deletion.
type OKResponse struct {
	OK bool `json:"ok"`
}

// List returns the caller's tasks, newest first.
func (h *TaskHandlers) List(c echo.Context) error {
	list, err := h.tasks.List(c.Request().Context(), owner(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Create adds a task for the caller.
func (h *TaskHandlers) Create(c echo.Context) error {
	var req CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), owner(c), firstNonEmpty(req.Title, c.QueryParam("title")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update applies a partial update to one of the caller's tasks.
func (h *TaskHandlers) Update(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var patch models.TaskPatch
	if err := bind(c, &patch); err != nil {
		return err
	}

	task, err := h.tasks.Update(c.Request().Context(), owner(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes one of the caller's tasks.
func (h *TaskHandlers) Delete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.Request().Context(), owner(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
