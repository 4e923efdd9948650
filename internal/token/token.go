// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and verifies HS256-signed bearer tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 60 * time.Minute

// TokenType is reported alongside every issued token.
const TokenType = "bearer"

var ErrEmptySecret = errors.New("token secret must not be empty")

// AccessToken is the login response.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Issuer mints signed tokens for a subject.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl selects DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue signs {sub, exp} for subject.
func (i *Issuer) Issue(subject string) (AccessToken, error) {
	if subject == "" {
		return AccessToken{}, errors.New("token subject must not be empty")
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(i.now().Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}

	return AccessToken{AccessToken: signed, TokenType: TokenType}, nil
}

// Verifier validates a bearer token and returns its subject.
type Verifier interface {
	Verify(raw string) (string, error)
}

// HMACVerifier verifies HS256 tokens against a shared secret.
type HMACVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates an HMACVerifier.
func NewVerifier(secret []byte) (*HMACVerifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &HMACVerifier{secret: secret, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (v *HMACVerifier) WithClock(now func() time.Time) *HMACVerifier {
	v.now = now
	return v
}

// Verify checks signature, algorithm and expiry. Every failure wraps
// apperr.ErrInvalidToken.
func (v *HMACVerifier) Verify(raw string) (string, error) {
	if raw == "" {
		return "", apperr.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", apperr.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", apperr.ErrInvalidToken)
	}

	return claims.Subject, nil
}
