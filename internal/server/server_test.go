// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/config"
	"codeberg.org/oliverandrich/taskboard/internal/server"
	"codeberg.org/oliverandrich/taskboard/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "localhost", MaxBodySize: 1},
		Log:      config.LogConfig{Level: "info", Format: "text"},
		Database: config.DatabaseConfig{URL: ":memory:"},
		Auth: config.AuthConfig{
			JWTSecret:         testutil.TestSecret,
			TokenTTL:          60 * time.Minute,
			MinPasswordLength: 6,
			PasswordRounds:    1000,
		},
		CORS: config.CORSConfig{Origins: config.SplitOrigins(config.DefaultCORSOrigins)},
		TLS:  config.TLSConfig{Mode: "off"},
	}
}

// services builds both services on one shared in-memory database.
func services(t *testing.T) (authSrv, tasksSrv *echo.Echo) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	cfg := testConfig()

	authSrv, err := server.NewAuthEcho(cfg, repo)
	require.NoError(t, err)
	tasksSrv, err = server.NewTasksEcho(cfg, repo)
	require.NoError(t, err)
	return authSrv, tasksSrv
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, e *echo.Echo, email, password string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := do(e, testutil.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body), ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func login(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := do(e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func TestHealth(t *testing.T) {
	authSrv, tasksSrv := services(t)

	for _, e := range []*echo.Echo{authSrv, tasksSrv} {
		rec := do(e, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestEndToEnd(t *testing.T) {
	authSrv, tasksSrv := services(t)

	register(t, authSrv, "a@test.com", "secret1")
	tok := login(t, authSrv, "a@test.com", "secret1")

	// Create
	rec := do(tasksSrv, testutil.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"Buy milk"}`), tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Done  bool   `json:"done"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Done)

	// Trailing slash is accepted
	rec = do(tasksSrv, testutil.NewRequest(http.MethodGet, "/tasks/", nil, tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Buy milk"`)

	// Update
	path := fmt.Sprintf("/tasks/%d", created.ID)
	rec = do(tasksSrv, testutil.NewRequest(http.MethodPut, path, strings.NewReader(`{"done":true}`), tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"done":true`)
	assert.Contains(t, rec.Body.String(), `"title":"Buy milk"`)

	// Delete
	rec = do(tasksSrv, testutil.NewRequest(http.MethodDelete, path, nil, tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = do(tasksSrv, testutil.NewRequest(http.MethodGet, "/tasks", nil, tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestOwnershipIsolation(t *testing.T) {
	authSrv, tasksSrv := services(t)
	register(t, authSrv, "a@test.com", "secret1")
	register(t, authSrv, "b@test.com", "secret2")
	tokA := login(t, authSrv, "a@test.com", "secret1")
	tokB := login(t, authSrv, "b@test.com", "secret2")

	rec := do(tasksSrv, testutil.NewRequest(http.MethodPost, "/tasks?title=A1", nil, tokA))
	require.Equal(t, http.StatusOK, rec.Code)
	var task struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	rec = do(tasksSrv, testutil.NewRequest(http.MethodGet, "/tasks", nil, tokB))
	assert.JSONEq(t, `[]`, rec.Body.String())

	path := fmt.Sprintf("/tasks/%d", task.ID)
	rec = do(tasksSrv, testutil.NewRequest(http.MethodPut, path, strings.NewReader(`{"done":true}`), tokB))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	missing := do(tasksSrv, testutil.NewRequest(http.MethodPut, "/tasks/999999", strings.NewReader(`{"done":true}`), tokB))
	assert.Equal(t, rec.Code, missing.Code)
	assert.Equal(t, rec.Body.String(), missing.Body.String())

	rec = do(tasksSrv, testutil.NewRequest(http.MethodDelete, path, nil, tokB))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(tasksSrv, testutil.NewRequest(http.MethodGet, "/tasks", nil, tokA))
	assert.Contains(t, rec.Body.String(), `"done":false`)
}

func TestTasksRequireToken(t *testing.T) {
	_, tasksSrv := services(t)

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing", "", "Not authenticated"},
		{"wrong scheme", "Basic abc", "Not authenticated"},
		{"garbage", "Bearer garbage", "Invalid token"},
		{"expired", "Bearer " + testutil.MakeToken(t, "a@test.com", -time.Minute), "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}

			rec := do(tasksSrv, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, fmt.Sprintf(`{"detail":%q}`, tt.detail), rec.Body.String())
		})
	}
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	authSrv, _ := services(t)
	register(t, authSrv, "a@test.com", "secret1")
	tok := login(t, authSrv, "a@test.com", "secret1")

	_, repo := testutil.NewTestDB(t)
	cfg := testConfig()
	cfg.Auth.JWTSecret = "rotated-secret"
	tasksSrv, err := server.NewTasksEcho(cfg, repo)
	require.NoError(t, err)

	rec := do(tasksSrv, testutil.NewRequest(http.MethodGet, "/tasks", nil, tok))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateAndLoginFailure(t *testing.T) {
	authSrv, _ := services(t)
	register(t, authSrv, "a@test.com", "secret1")

	rec := do(authSrv, testutil.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@test.com","password":"secret1"}`), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Email already registered"}`, rec.Body.String())

	form := url.Values{"username": {"a@test.com"}, "password": {"wrong-pw"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = do(authSrv, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	authSrv, _ := services(t)

	rec := do(authSrv, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	_, tasksSrv := services(t)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
		req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)

		rec := do(tasksSrv, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
		assert.Equal(t, "300", rec.Header().Get(echo.HeaderAccessControlMaxAge))
	})

	t.Run("other origin not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(echo.HeaderOrigin, "http://evil.example")

		rec := do(tasksSrv, req)

		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}
