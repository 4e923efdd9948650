// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/database"
	"codeberg.org/oliverandrich/taskboard/internal/models"
	"codeberg.org/oliverandrich/taskboard/internal/repository"
	"codeberg.org/oliverandrich/taskboard/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// TestSecret is the signing secret used across tests.
const TestSecret = "ci-test-secret"

// NewTestDB creates an in-memory SQLite database with both schemas migrated.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db, database.SchemaUsers))
	require.NoError(t, database.RunMigrations(ctx, db, database.SchemaTasks))

	return db, repository.New(db)
}

// NewTestTask creates a task owned by owner.
func NewTestTask(t *testing.T, repo *repository.Repository, owner, title string) *models.Task {
	t.Helper()
	task := &models.Task{OwnerEmail: owner, Title: title}
	require.NoError(t, repo.CreateTask(context.Background(), task))
	return task
}

// MakeToken signs a token for subject with TestSecret that expires ttl from now.
// A negative ttl yields an already expired token.
func MakeToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	issuer, err := token.NewIssuer([]byte(TestSecret), time.Hour)
	require.NoError(t, err)
	issuer.WithClock(func() time.Time { return time.Now().Add(ttl - time.Hour) })

	tok, err := issuer.Issue(subject)
	require.NoError(t, err)
	return tok.AccessToken
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request with optional bearer token for testing.
func NewRequest(method, path string, body io.Reader, bearer string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	return req
}
