// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// encrypt.go - AES-256-GCM authenticated encryption for stored secrets.
//
// Implements NIST 800-53 SC-28 (Protection of Information at Rest):
// every stored secret is sealed with AES-256-GCM under the account's
// derived key. The wire format is base64(nonce || ciphertext || tag) with
// a random 96-bit nonce per call and a 128-bit authentication tag.
//
// Nonce uniqueness per key is the core safety invariant: a repeated nonce
// under the same key breaks confidentiality.

package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/vaultrun/internal/errs"
)

// NonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits).
const NonceSize = 12

var (
	// ErrInvalidCiphertext indicates the payload is malformed (bad base64
	// or shorter than a nonce plus tag).
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrDecryptionFailed indicates the authentication tag did not verify:
	// either the key is wrong or the data was tampered with. Decryption
	// never silently returns garbage.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// Encrypt seals plaintext with AES-256-GCM under the given 32-byte key
// and returns base64(nonce || ciphertext || tag). A fresh random nonce is
// generated per call.
func Encrypt(plaintext []byte, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext||tag after the nonce prefix.
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a payload produced by Encrypt. The first 12 decoded bytes
// are the nonce, the remainder ciphertext plus tag. A tag mismatch or a
// wrong key surfaces as a crypto-kinded error wrapping ErrDecryptionFailed.
func Decrypt(payload string, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errs.Wrap(errs.KindCrypto, "decrypt", ErrInvalidCiphertext)
	}
	if len(sealed) < NonceSize+aead.Overhead() {
		return nil, errs.Wrap(errs.KindCrypto, "decrypt", ErrInvalidCiphertext)
	}

	nonce := sealed[:NonceSize]
	ciphertext := sealed[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindCrypto, "decrypt", ErrDecryptionFailed)
	}
	return plaintext, nil
}

// EncryptString is Encrypt for string plaintexts.
func EncryptString(plaintext string, key []byte) (string, error) {
	return Encrypt([]byte(plaintext), key)
}

// DecryptString is Decrypt returning a string plaintext.
func DecryptString(payload string, key []byte) (string, error) {
	plaintext, err := Decrypt(payload, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// newGCM builds the AES-256-GCM AEAD for a 32-byte key.
func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, errs.New(errs.KindCrypto, fmt.Sprintf("invalid key length %d, want %d", len(key), KeySize))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindCrypto, "failed to create AES cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.KindCrypto, "failed to create GCM cipher", err)
	}
	return aead, nil
}
