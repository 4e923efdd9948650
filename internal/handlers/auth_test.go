// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/taskboard/internal/config"
	"codeberg.org/oliverandrich/taskboard/internal/handlers"
	"codeberg.org/oliverandrich/taskboard/internal/services/auth"
	"codeberg.org/oliverandrich/taskboard/internal/testutil"
	"codeberg.org/oliverandrich/taskboard/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandlers(t *testing.T) *handlers.AuthHandlers {
	t.Helper()
	_, repo := testutil.NewTestDB(t)

	issuer, err := token.NewIssuer([]byte(testutil.TestSecret), 0)
	require.NoError(t, err)
	svc, err := auth.NewService(repo, issuer, &config.AuthConfig{MinPasswordLength: 6, PasswordRounds: 1000})
	require.NoError(t, err)

	return handlers.NewAuth(svc)
}

func TestRegister_JSON(t *testing.T) {
	h := newAuthHandlers(t)
	c, rec := testutil.NewEchoContext(echo.New(), http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@test.com","password":"secret1"}`))

	handle(c, h.Register)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@test.com"}`, rec.Body.String())
}

func TestRegister_QueryParams(t *testing.T) {
	h := newAuthHandlers(t)
	e := echo.New()
	req := testutil.NewRequest(http.MethodPost, "/auth/register?email=a@test.com&password=secret1", nil, "")
	rec := newRecorder()
	c := e.NewContext(req, rec)

	handle(c, h.Register)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@test.com"}`, rec.Body.String())
}

func TestRegister_Form(t *testing.T) {
	h := newAuthHandlers(t)
	form := url.Values{"email": {"a@test.com"}, "password": {"secret1"}}
	c, rec := newFormContext(http.MethodPost, "/auth/register", form)

	handle(c, h.Register)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	h := newAuthHandlers(t)
	body := `{"email":"a@test.com","password":"secret1"}`

	c, rec := testutil.NewEchoContext(echo.New(), http.MethodPost, "/auth/register", strings.NewReader(body))
	handle(c, h.Register)
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = testutil.NewEchoContext(echo.New(), http.MethodPost, "/auth/register", strings.NewReader(body))
	handle(c, h.Register)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Email already registered"}`, rec.Body.String())
}

func TestRegister_Invalid(t *testing.T) {
	h := newAuthHandlers(t)
	c, rec := testutil.NewEchoContext(echo.New(), http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@test.com","password":"123"}`))

	handle(c, h.Register)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 6 characters")
}

func TestRegister_MalformedJSON(t *testing.T) {
	h := newAuthHandlers(t)
	c, rec := testutil.NewEchoContext(echo.New(), http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":`))

	handle(c, h.Register)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid JSON"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	h := newAuthHandlers(t)
	c, rec := testutil.NewEchoContext(echo.New(), http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@test.com","password":"secret1"}`))
	handle(c, h.Register)
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newFormContext(http.MethodPost, "/auth/login",
		url.Values{"username": {"a@test.com"}, "password": {"secret1"}})
	handle(c, h.Login)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp token.AccessToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newAuthHandlers(t)

	c, rec := newFormContext(http.MethodPost, "/auth/login",
		url.Values{"username": {"nobody@test.com"}, "password": {"secret1"}})
	handle(c, h.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, rec.Body.String())
}

func TestLogin_MissingFields(t *testing.T) {
	h := newAuthHandlers(t)

	c, rec := newFormContext(http.MethodPost, "/auth/login", url.Values{"username": {"a@test.com"}})
	handle(c, h.Login)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":"Password cannot be empty"}`, rec.Body.String())
}
