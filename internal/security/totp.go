// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// totp.go - Time-based one-time password second factor (RFC 6238).
//
// Verification is strict: a code is only accepted for the exact current
// 30-second time step. No adjacent-step skew is granted, so a code
// computed for step T fails at step T+1.

package security

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// TOTPSecretSize is the raw secret size in bytes (160 bits).
	TOTPSecretSize = 20

	// TOTPPeriod is the time-step length in seconds.
	TOTPPeriod = 30
)

// b32NoPadding encodes TOTP secrets the way authenticator apps expect.
var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateTOTPSecret returns a fresh base32-encoded shared secret from
// 160 random bits.
func GenerateTOTPSecret() (string, error) {
	secret := make([]byte, TOTPSecretSize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return b32NoPadding.EncodeToString(secret), nil
}

// EnrollmentURI builds the otpauth URI that an external QR renderer turns
// into a scannable enrollment code.
func EnrollmentURI(username, issuer, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		issuer, username, secret, issuer)
}

// VerifyTOTP checks a numeric code against the shared secret for the
// 30-second step containing now. Non-numeric or malformed input returns
// false, not an error.
func VerifyTOTP(code, secret string, now time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    TOTPPeriod,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}
