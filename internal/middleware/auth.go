// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/taskboard/internal/apperr"
	"codeberg.org/oliverandrich/taskboard/internal/auth"
	"codeberg.org/oliverandrich/taskboard/internal/token"
	"github.com/labstack/echo/v4"
)

// RequireBearer verifies the Authorization bearer token and stores its subject
// in the request context. Requests without a valid token never reach next.
func RequireBearer(verifier token.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.ErrMissingToken
			}

			subject, err := verifier.Verify(raw)
			if err != nil {
				slog.Debug("token_rejected", "error", err, "request_id", auth.RequestID(c.Request().Context()))
				return fmt.Errorf("verify bearer: %w", err)
			}

			c.SetRequest(c.Request().WithContext(auth.WithSubject(c.Request().Context(), subject)))
			return next(c)
		}
	}
}

// bearerToken extracts the credentials of a "Bearer <token>" header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	credentials = strings.TrimSpace(credentials)
	return credentials, credentials != ""
}
