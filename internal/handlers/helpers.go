// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/taskboard/internal/auth"
	"github.com/labstack/echo/v4"
)

// bind decodes the request body (JSON or form) into v.
// Decoding failures become 400 Invalid JSON.
func bind(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidJSON).SetInternal(err)
	}
	return nil
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// taskID parses the :id path parameter.
func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, MsgInvalidTaskID).SetInternal(err)
	}
	return id, nil
}

// owner returns the authenticated subject set by middleware.RequireBearer.
func owner(c echo.Context) string {
	return auth.Subject(c.Request().Context())
}
