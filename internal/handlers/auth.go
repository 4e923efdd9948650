// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/taskboard/internal/services/auth"
	"codeberg.org/oliverandrich/taskboard/internal/validation"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for registration and login.
type AuthHandlers struct {
	auth *auth.Service
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *auth.Service) *AuthHandlers {
	return &AuthHandlers{auth: svc}
}

// RegisterRequest is accepted as JSON, form data or query parameters.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Email string `json:"email"`
}

// Register creates a user account.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), auth.RegisterParams{
		Email:    firstNonEmpty(req.Email, c.QueryParam("email")),
		Password: firstNonEmpty(req.Password, c.QueryParam("password")),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RegisterResponse{Email: user.Email})
}

// LoginForm follows the OAuth2 password grant field names.
type LoginForm struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Login checks credentials and returns an access token.
func (h *AuthHandlers) Login(c echo.Context) error {
	form := LoginForm{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	if err := validation.Struct(form); err != nil {
		return err
	}

	tok, err := h.auth.Login(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tok)
}
