// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Hashes are stored in the passlib modular crypt format:
//
//	$pbkdf2-sha256$<rounds>$<salt>$<checksum>
//
// salt and checksum use passlib's "ab64" alphabet (standard base64, no padding, '.' for '+').
const (
	hashIdent = "pbkdf2-sha256"

	// DefaultRounds matches passlib's pbkdf2_sha256 default.
	DefaultRounds = 29000

	saltSize = 16
	keySize  = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

// Hasher derives and checks PBKDF2-SHA256 password hashes.
type Hasher struct {
	Rounds int
}

// NewHasher returns a Hasher using rounds iterations, or DefaultRounds if rounds <= 0.
func NewHasher(rounds int) *Hasher {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &Hasher{Rounds: rounds}
}

// Hash derives an encoded hash for password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.Rounds, keySize, sha256.New)

	return fmt.Sprintf("$%s$%d$%s$%s", hashIdent, h.Rounds, ab64Encode(salt), ab64Encode(key)), nil
}

// Verify reports whether password matches encoded. The rounds stored in the
// hash are used, so hashes created with other settings keep working.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	rounds, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}

	got := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func parseHash(encoded string) (rounds int, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != hashIdent {
		return 0, nil, nil, ErrMalformedHash
	}

	rounds, err = strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return 0, nil, nil, ErrMalformedHash
	}
	if salt, err = ab64Decode(parts[3]); err != nil {
		return 0, nil, nil, ErrMalformedHash
	}
	if key, err = ab64Decode(parts[4]); err != nil || len(key) == 0 {
		return 0, nil, nil, ErrMalformedHash
	}
	return rounds, salt, key, nil
}

func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}
