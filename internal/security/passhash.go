// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// passhash.go - Adaptive password hashing for login verification.
//
// Uses bcrypt with a fixed work factor of 12. The bcrypt output embeds its
// own per-call salt and cost, which is distinct from the account's
// key-derivation salt: the former gates login, the latter feeds DeriveKey.

package security

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/vaultrun/internal/errs"
)

// BcryptCost is the bcrypt work factor for master password hashes.
const BcryptCost = 12

// HashPassword hashes a master password with bcrypt. The result is an
// opaque string safe to persist; it is never the plaintext password.
func HashPassword(password []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(password, BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a stored bcrypt hash.
// The comparison is constant-time relative to bcrypt's own mechanism.
// Returns false for a mismatch; an error only for a malformed hash.
func CheckPassword(password []byte, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password hash: %w", err)
}

// ValidatePasswordStrength rejects master passwords shorter than 8
// characters or missing a lowercase letter, an uppercase letter or a
// digit.
func ValidatePasswordStrength(password []byte) error {
	if len(password) < 8 {
		return errs.New(errs.KindValidation, "password must be at least 8 characters long")
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range string(password) {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return errs.New(errs.KindValidation,
			"password must include lower and uppercase letters and at least one number")
	}
	return nil
}
