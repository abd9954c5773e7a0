// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// kdf.go - Password-based key derivation for the vault session key.
//
// Implements NIST SP 800-132 Password-Based Key Derivation using
// PBKDF2-HMAC-SHA-256. The derivation is deterministic: the same password
// and salt always yield the same key, so a returning user can decrypt
// previously stored secrets.

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/vaultrun/internal/errs"
)

const (
	// KeySize is the size of the derived AES-256 key (32 bytes / 256 bits).
	KeySize = 32

	// SaltSize is the size of the raw key-derivation salt (16 bytes).
	SaltSize = 16

	// PBKDF2Iterations is the PBKDF2 work factor.
	PBKDF2Iterations = 100000
)

// GenerateSalt returns a fresh random salt, base64-encoded for storage.
// The salt is immutable once assigned to an account.
func GenerateSalt() (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveKey derives the 256-bit vault key from a master password and the
// account's base64 salt. Fails with a crypto-kinded error if the salt
// cannot be decoded.
//
// The caller owns the returned key material and must zero it after last
// use (see ZeroBytes).
func DeriveKey(password []byte, salt string) ([]byte, error) {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, errs.Wrap(errs.KindCrypto, "key derivation: invalid salt encoding", err)
	}
	return pbkdf2.Key(password, saltBytes, PBKDF2Iterations, KeySize, sha256.New), nil
}

// ZeroBytes securely zeros sensitive byte slices to prevent memory
// disclosure via crash dumps.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
