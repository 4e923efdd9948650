// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"

	"codeberg.org/oliverandrich/taskboard/internal/config"
	"codeberg.org/oliverandrich/taskboard/internal/handlers"
	appmw "codeberg.org/oliverandrich/taskboard/internal/middleware"
	"codeberg.org/oliverandrich/taskboard/internal/repository"
	"codeberg.org/oliverandrich/taskboard/internal/services/auth"
	"codeberg.org/oliverandrich/taskboard/internal/services/tasks"
	"codeberg.org/oliverandrich/taskboard/internal/token"
	"github.com/labstack/echo/v4"
)

// newEcho creates an Echo instance with the shared middleware, error handler and health route.
func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg)

	e.GET("/health", handlers.New().Health)
	return e
}

// NewAuthEcho builds the auth service: registration and login.
func NewAuthEcho(cfg *config.Config, repo *repository.Repository) (*echo.Echo, error) {
	issuer, err := token.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	svc, err := auth.NewService(repo, issuer, &cfg.Auth)
	if err != nil {
		return nil, err
	}

	e := newEcho(cfg)
	h := handlers.NewAuth(svc)

	g := e.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)

	return e, nil
}

// NewTasksEcho builds the tasks service. Every /tasks route requires a bearer token.
func NewTasksEcho(cfg *config.Config, repo *repository.Repository) (*echo.Echo, error) {
	verifier, err := token.NewVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	e := newEcho(cfg)
	h := handlers.NewTasks(tasks.NewService(repo))

	g := e.Group("/tasks", appmw.RequireBearer(verifier))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	return e, nil
}
