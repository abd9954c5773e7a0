// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vaultrun/internal/errs"
)

// TestGeneratePassword_Length tests every valid length.
func TestGeneratePassword_Length(t *testing.T) {
	for length := MinPasswordLength; length <= MaxPasswordLength; length++ {
		pw, err := GeneratePassword(length)
		require.NoError(t, err)
		require.Equal(t, length, len(pw))
	}
}

// TestGeneratePassword_CharacterClasses tests that every password carries
// at least one character from each of the four classes.
func TestGeneratePassword_CharacterClasses(t *testing.T) {
	for i := 0; i < 100; i++ {
		pw, err := GeneratePassword(MinPasswordLength)
		require.NoError(t, err)

		require.True(t, strings.ContainsAny(pw, upperChars), "missing uppercase in %q", pw)
		require.True(t, strings.ContainsAny(pw, lowerChars), "missing lowercase in %q", pw)
		require.True(t, strings.ContainsAny(pw, digitChars), "missing digit in %q", pw)
		require.True(t, strings.ContainsAny(pw, symbolChars), "missing symbol in %q", pw)
	}
}

// TestGeneratePassword_AlphabetOnly tests that no character falls outside
// the union alphabet.
func TestGeneratePassword_AlphabetOnly(t *testing.T) {
	pw, err := GeneratePassword(MaxPasswordLength)
	require.NoError(t, err)
	for _, c := range pw {
		require.True(t, strings.ContainsRune(allChars, c), "unexpected character %q", c)
	}
}

// TestGeneratePassword_BoundsRejected tests out-of-range lengths.
func TestGeneratePassword_BoundsRejected(t *testing.T) {
	for _, length := range []int{-1, 0, 7, 21, 100} {
		_, err := GeneratePassword(length)
		require.Error(t, err, "length %d should be rejected", length)
		require.Equal(t, errs.KindValidation, errs.KindOf(err))
	}
}

// TestGeneratePassword_NotConstant tests that successive passwords differ.
func TestGeneratePassword_NotConstant(t *testing.T) {
	a, err := GeneratePassword(16)
	require.NoError(t, err)
	b, err := GeneratePassword(16)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

// TestGeneratePassword_GuaranteedCharsShuffled tests that the class
// characters are not pinned to the first four positions.
func TestGeneratePassword_GuaranteedCharsShuffled(t *testing.T) {
	// If the shuffle were missing, position 0 would always hold an
	// uppercase letter. Over enough samples that becomes vanishingly
	// unlikely with a real shuffle.
	alwaysUpper := true
	for i := 0; i < 64; i++ {
		pw, err := GeneratePassword(MaxPasswordLength)
		require.NoError(t, err)
		if !strings.ContainsRune(upperChars, rune(pw[0])) {
			alwaysUpper = false
			break
		}
	}
	require.False(t, alwaysUpper, "First character is always uppercase; shuffle looks broken")
}

// =============================================================================
// PASSWORD HASHER TESTS
// =============================================================================

// TestHashPassword_VerifyRoundTrip tests hash then verify.
func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword([]byte("Password123!"))
	require.NoError(t, err)
	require.NotContains(t, hash, "Password123!", "Hash must not embed the plaintext")

	ok, err := CheckPassword([]byte("Password123!"), hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = CheckPassword([]byte("wrong password"), hash)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestHashPassword_SaltedPerCall tests that two hashes of the same
// password differ (bcrypt embeds a per-call salt).
func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword([]byte("Password123!"))
	require.NoError(t, err)
	h2, err := HashPassword([]byte("Password123!"))
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

// TestCheckPassword_MalformedHash tests that a garbage hash surfaces an error.
func TestCheckPassword_MalformedHash(t *testing.T) {
	_, err := CheckPassword([]byte("password"), "not-a-bcrypt-hash")
	require.Error(t, err)
}
