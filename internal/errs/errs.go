// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errs defines the error taxonomy shared by the vault engine.
//
// Every store and crypto failure is converted into a kinded error at the
// component boundary so that callers can branch on the outcome without
// inspecting driver or cipher internals. Lockout and duplicate conditions
// are business outcomes, not faults.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the vault outcome categories.
type Kind int

const (
	// KindUnknown is the zero value for errors outside the taxonomy.
	KindUnknown Kind = iota

	// KindValidation covers empty fields and weak passwords.
	KindValidation

	// KindDuplicate covers username or site collisions.
	KindDuplicate

	// KindAuthentication covers a bad password or a bad TOTP code.
	KindAuthentication

	// KindAccountLocked covers an active lockout window.
	KindAccountLocked

	// KindCrypto covers AEAD tag mismatches and malformed ciphertext.
	KindCrypto

	// KindPersistence covers an unreachable store or a constraint fault.
	KindPersistence

	// KindNotFound covers an unknown account or site.
	KindNotFound

	// KindThrottled covers in-process rate limiting of login attempts.
	KindThrottled
)

// String returns a short machine-friendly name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindAuthentication:
		return "authentication"
	case KindAccountLocked:
		return "account_locked"
	case KindCrypto:
		return "crypto"
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not_found"
	case KindThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// Error is a kinded error. It wraps an optional cause so that callers can
// still reach sentinel errors through errors.Is / errors.As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a kinded error with no underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a kind and message to an underlying error.
// Returns nil if err is nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain.
// Returns KindUnknown for nil or unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
