// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// passgen.go - Secure random password synthesis.
//
// The generated password always contains at least one character from each
// of the four classes. One character per class is placed first, the
// remainder is drawn uniformly from the union alphabet, and the whole
// buffer is shuffled with a crypto/rand Fisher-Yates pass so the
// guaranteed characters are not positionally predictable.

package security

import (
	"crypto/rand"
	"math/big"

	"github.com/jeranaias/vaultrun/internal/errs"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()_-+=[]{};:,.?"

	allChars = upperChars + lowerChars + digitChars + symbolChars

	// MinPasswordLength and MaxPasswordLength bound GeneratePassword.
	MinPasswordLength = 8
	MaxPasswordLength = 20
)

// GeneratePassword returns a random password of the given length with at
// least one uppercase letter, lowercase letter, digit and symbol.
// Length must be within [MinPasswordLength, MaxPasswordLength].
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength || length > MaxPasswordLength {
		return "", errs.New(errs.KindValidation, "password length must be between 8 and 20")
	}

	buf := make([]byte, 0, length)

	// One guaranteed character per class.
	for _, class := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	for i := len(buf); i < length; i++ {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// randomChar picks one byte from alphabet using crypto/rand.
func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, errs.Wrap(errs.KindCrypto, "failed to read random source", err)
	}
	return alphabet[n.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle over buf with crypto/rand.
func shuffle(buf []byte) error {
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return errs.Wrap(errs.KindCrypto, "failed to read random source", err)
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return nil
}
