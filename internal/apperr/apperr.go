// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperr defines the error taxonomy shared by the auth and tasks services.
// Callers classify errors with errors.Is.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before persistence.
	ErrValidation = errors.New("validation error")

	// ErrDuplicateIdentity is returned when registering an email that already exists.
	ErrDuplicateIdentity = errors.New("email already registered")

	// ErrInvalidCredentials is returned for any failed login. It never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingToken is returned when a protected route is called without a bearer token.
	ErrMissingToken = errors.New("not authenticated")

	// ErrInvalidToken covers bad signatures, malformed or expired tokens and missing subjects.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNotFound is returned for records that are absent or owned by someone else.
	ErrNotFound = errors.New("not found")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError wraps one or more field errors. It matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
