// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements registration and login for the auth service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"unicode/utf8"

	"codeberg.org/oliverandrich/taskboard/internal/apperr"
	"codeberg.org/oliverandrich/taskboard/internal/config"
	"codeberg.org/oliverandrich/taskboard/internal/models"
	"codeberg.org/oliverandrich/taskboard/internal/repository"
	"codeberg.org/oliverandrich/taskboard/internal/token"
	"codeberg.org/oliverandrich/taskboard/internal/validation"
)

// UserStore persists user credentials.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	store  UserStore
	issuer *token.Issuer
	hasher *Hasher
	config *config.AuthConfig

	// dummyHash is verified for unknown users so both login failures cost the same.
	dummyHash string
}

func NewService(store UserStore, issuer *token.Issuer, cfg *config.AuthConfig) (*Service, error) {
	hasher := NewHasher(cfg.PasswordRounds)

	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("failed to create dummy hash: %w", err)
	}

	return &Service{
		store:     store,
		issuer:    issuer,
		hasher:    hasher,
		config:    cfg,
		dummyHash: dummy,
	}, nil
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if err := s.validate(params); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        params.Email,
		PasswordHash: passwordHash,
	}

	// The UNIQUE index decides duplicates, so concurrent registrations cannot both succeed.
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			slog.Warn("register_failed", "email", params.Email, "reason", "duplicate")
			return nil, apperr.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	return user, nil
}

func (s *Service) validate(params RegisterParams) error {
	if err := validation.Struct(params); err != nil {
		return err
	}

	// Reject display-name forms like "Bob <bob@example.com>".
	addr, err := mail.ParseAddress(params.Email)
	if err != nil || addr.Address != params.Email {
		return apperr.NewValidationError("email", "Invalid email address")
	}

	if minLen := s.config.MinPasswordLength; utf8.RuneCountInString(params.Password) < minLen {
		return apperr.NewValidationError("password",
			fmt.Sprintf("Password must be at least %d characters long", minLen))
	}

	return nil
}

// Login checks credentials and issues an access token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (token.AccessToken, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return token.AccessToken{}, apperr.ErrInvalidCredentials
		}
		return token.AccessToken{}, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		slog.Error("login_failed", "email", email, "reason", "malformed_hash", "error", err)
		return token.AccessToken{}, apperr.ErrInvalidCredentials
	}
	if !ok {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return token.AccessToken{}, apperr.ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(user.Email)
	if err != nil {
		return token.AccessToken{}, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return tok, nil
}
