// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the vault crypto primitives:
// - Key derivation (PBKDF2-SHA-256) determinism and salt sensitivity
// - AES-256-GCM round trips and tag verification
// - Nonce uniqueness across payloads
package security

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vaultrun/internal/errs"
)

// =============================================================================
// KEY DERIVATION TESTS
// =============================================================================

// TestKDF_Deterministic tests that the same password and salt always yield
// the same key.
func TestKDF_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	key1, err := DeriveKey([]byte("correct horse battery"), salt)
	require.NoError(t, err)
	key2, err := DeriveKey([]byte("correct horse battery"), salt)
	require.NoError(t, err)

	require.True(t, bytes.Equal(key1, key2), "Same password/salt should derive same key")
	require.Equal(t, KeySize, len(key1), "Derived key should be %d bytes (256 bits)", KeySize)
}

// TestKDF_DifferentSalts tests that different salts derive different keys.
func TestKDF_DifferentSalts(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	salt2, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, salt1, salt2, "Fresh salts should differ")

	key1, err := DeriveKey([]byte("password"), salt1)
	require.NoError(t, err)
	key2, err := DeriveKey([]byte("password"), salt2)
	require.NoError(t, err)

	require.False(t, bytes.Equal(key1, key2), "Different salts should derive different keys")
}

// TestKDF_InvalidSalt tests that a non-base64 salt fails with a crypto error.
func TestKDF_InvalidSalt(t *testing.T) {
	_, err := DeriveKey([]byte("password"), "not!!valid@@base64")
	require.Error(t, err)
	require.Equal(t, errs.KindCrypto, errs.KindOf(err))
}

// TestKDF_SaltDecodes tests that generated salts carry 16 bytes of entropy.
func TestKDF_SaltDecodes(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(salt)
	require.NoError(t, err)
	require.Equal(t, SaltSize, len(raw))
}

// =============================================================================
// AEAD TESTS
// =============================================================================

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

// TestEncrypt_RoundTrip tests decrypt(encrypt(m, k), k) == m.
func TestEncrypt_RoundTrip(t *testing.T) {
	key := testKey(t)

	plaintexts := [][]byte{
		[]byte("secret"),
		[]byte(""),
		[]byte("longer plaintext with spaces and unicode: пароль 密码"),
		bytes.Repeat([]byte{0x00}, 1024),
	}

	for _, plaintext := range plaintexts {
		payload, err := Encrypt(plaintext, key)
		require.NoError(t, err)

		got, err := Decrypt(payload, key)
		require.NoError(t, err)
		require.True(t, bytes.Equal(plaintext, got), "Round trip must restore plaintext")
	}
}

// TestEncrypt_WrongKeyFails tests that decryption under a different key
// fails the authentication tag rather than returning corrupted plaintext.
func TestEncrypt_WrongKeyFails(t *testing.T) {
	key1 := testKey(t)
	key2 := testKey(t)

	payload, err := Encrypt([]byte("secret"), key1)
	require.NoError(t, err)

	_, err = Decrypt(payload, key2)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDecryptionFailed), "Wrong key must surface tag mismatch")
	require.Equal(t, errs.KindCrypto, errs.KindOf(err))
}

// TestEncrypt_TamperedCiphertextFails tests that a single flipped bit is detected.
func TestEncrypt_TamperedCiphertextFails(t *testing.T) {
	key := testKey(t)

	payload, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	sealed, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(sealed)

	_, err = Decrypt(tampered, key)
	require.True(t, errors.Is(err, ErrDecryptionFailed))
}

// TestEncrypt_MalformedPayload tests bad base64 and truncated payloads.
func TestEncrypt_MalformedPayload(t *testing.T) {
	key := testKey(t)

	for _, payload := range []string{
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte("short")),
		"",
	} {
		_, err := Decrypt(payload, key)
		require.Error(t, err, "payload %q should be rejected", payload)
		require.True(t, errors.Is(err, ErrInvalidCiphertext) || errors.Is(err, ErrDecryptionFailed))
	}
}

// TestEncrypt_NonceUniqueness tests that repeated encryption of the same
// plaintext under the same key never reuses a nonce.
func TestEncrypt_NonceUniqueness(t *testing.T) {
	key := testKey(t)

	seen := make(map[string]bool)
	for i := 0; i < 256; i++ {
		payload, err := Encrypt([]byte("same plaintext"), key)
		require.NoError(t, err)

		sealed, err := base64.StdEncoding.DecodeString(payload)
		require.NoError(t, err)

		nonce := string(sealed[:NonceSize])
		require.False(t, seen[nonce], "Nonce reuse detected at iteration %d", i)
		seen[nonce] = true
	}
}

// TestEncrypt_BadKeyLength tests that short keys are rejected up front.
func TestEncrypt_BadKeyLength(t *testing.T) {
	_, err := Encrypt([]byte("data"), make([]byte, 16))
	require.Error(t, err)
	require.Equal(t, errs.KindCrypto, errs.KindOf(err))
}

// =============================================================================
// KEY HOLDER TESTS
// =============================================================================

// TestKeyHolder_StoreGetClear tests the holder lifecycle.
func TestKeyHolder_StoreGetClear(t *testing.T) {
	h := NewKeyHolder()
	require.Nil(t, h.Get(), "Empty holder should return nil")
	require.False(t, h.Active())

	key := testKey(t)
	h.Store(key)
	require.True(t, h.Active())
	require.True(t, bytes.Equal(key, h.Get()))

	h.Clear()
	require.Nil(t, h.Get(), "Cleared holder should return nil")
	require.False(t, h.Active())
}

// TestKeyHolder_StoreCopies tests that the holder does not alias caller
// or callee buffers.
func TestKeyHolder_StoreCopies(t *testing.T) {
	h := NewKeyHolder()

	key := testKey(t)
	orig := make([]byte, len(key))
	copy(orig, key)

	h.Store(key)
	ZeroBytes(key)

	got := h.Get()
	require.True(t, bytes.Equal(orig, got), "Holder must keep its own copy")

	// Mutating the returned copy must not affect the held key.
	ZeroBytes(got)
	require.True(t, bytes.Equal(orig, h.Get()))
}

// TestKeyHolder_StoreReplaces tests that storing twice keeps only the last key.
func TestKeyHolder_StoreReplaces(t *testing.T) {
	h := NewKeyHolder()

	first := testKey(t)
	second := testKey(t)
	h.Store(first)
	h.Store(second)

	require.True(t, bytes.Equal(second, h.Get()))
}

// TestZeroBytes tests that every byte is overwritten.
func TestZeroBytes(t *testing.T) {
	buf := []byte("sensitive material")
	ZeroBytes(buf)
	for i, b := range buf {
		require.Zero(t, b, "Byte %d not zeroed", i)
	}

	// Zeroing nil must not panic.
	ZeroBytes(nil)
}
