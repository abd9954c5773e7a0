// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security provides the cryptographic primitives for the vault:
//
//   - PBKDF2-SHA-256 key derivation (SP 800-132)
//   - bcrypt password hashing for login verification
//   - AES-256-GCM authenticated encryption for data at rest (SC-28)
//   - TOTP second-factor generation and verification (RFC 6238)
//   - secure random password synthesis
//   - the process-wide session key holder
//
// The derived session key exists only between a successful password
// verification and logout (or any authentication failure). It is zeroed
// before release and never persisted.
package security
