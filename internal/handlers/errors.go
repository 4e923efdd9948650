// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/taskboard/internal/apperr"
	"codeberg.org/oliverandrich/taskboard/internal/auth"
	"github.com/labstack/echo/v4"
)

// Stable client-facing messages.
const (
	MsgEmailRegistered    = "Email already registered"
	MsgInvalidCredentials = "Invalid credentials"
	MsgNotAuthenticated   = "Not authenticated"
	MsgInvalidToken       = "Invalid token"
	MsgTaskNotFound       = "Task not found"
	MsgInvalidTaskID      = "Invalid task id"
	MsgInvalidJSON        = "Invalid JSON"
	MsgInternal           = "Internal server error"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ErrorHandler is the Echo HTTPErrorHandler for both services.
// It maps the apperr taxonomy to status codes and writes {"detail": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := classify(err)

	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if status >= http.StatusInternalServerError {
		slog.Error("unhandled error",
			"error", err,
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"request_id", auth.RequestID(c.Request().Context()),
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}

func classify(err error) (int, string) {
	var verr *apperr.ValidationError
	var herr *echo.HTTPError

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Error()
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, apperr.ErrDuplicateIdentity):
		return http.StatusBadRequest, MsgEmailRegistered
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case errors.Is(err, apperr.ErrMissingToken):
		return http.StatusUnauthorized, MsgNotAuthenticated
	case errors.Is(err, apperr.ErrInvalidToken):
		return http.StatusUnauthorized, MsgInvalidToken
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, MsgTaskNotFound
	case errors.As(err, &herr):
		if herr.Code >= http.StatusInternalServerError {
			return herr.Code, MsgInternal
		}
		if msg, ok := herr.Message.(string); ok {
			return herr.Code, msg
		}
		return herr.Code, fmt.Sprint(herr.Message)
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}
