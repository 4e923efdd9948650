// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"strings"
	"testing"

	"codeberg.org/oliverandrich/taskboard/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := auth.NewHasher(1000)

	encoded, err := h.Hash("password123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$pbkdf2-sha256$1000$"))
	assert.NotContains(t, encoded, "password123")

	ok, err := h.Verify("password123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("password124", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltedPerHash(t *testing.T) {
	h := auth.NewHasher(1000)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_DefaultRounds(t *testing.T) {
	h := auth.NewHasher(0)

	assert.Equal(t, auth.DefaultRounds, h.Rounds)
}

func TestHasher_VerifyPasslibHash(t *testing.T) {
	// Produced by passlib-compatible PBKDF2-HMAC-SHA256, 1000 rounds, salt "0123456789abcdef".
	const encoded = "$pbkdf2-sha256$1000$MDEyMzQ1Njc4OWFiY2RlZg$7pIPI0sitcuV3BHuAXKxYp05t2Lr7TsZ1RJt6Uxah.U"

	// Rounds come from the hash, not the hasher.
	h := auth.NewHasher(5)

	ok, err := h.Verify("password123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_VerifyMalformed(t *testing.T) {
	h := auth.NewHasher(1000)

	tests := []string{
		"",
		"plaintext",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$pbkdf2-sha256$abc$MDEy$MDEy",
		"$pbkdf2-sha256$0$MDEy$MDEy",
		"$pbkdf2-sha256$1000$!!!$MDEy",
		"$pbkdf2-sha256$1000$MDEy$",
	}

	for _, encoded := range tests {
		t.Run(encoded, func(t *testing.T) {
			ok, err := h.Verify("password", encoded)
			assert.ErrorIs(t, err, auth.ErrMalformedHash)
			assert.False(t, ok)
		})
	}
}
