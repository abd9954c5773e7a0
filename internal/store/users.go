// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// users.go - Row-level operations over the users table.
//
// Accounts are created by registration, mutated on every login attempt
// (failure counter, timestamps), reset on successful TOTP completion, and
// deleted on explicit account removal (cascading to credentials).

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jeranaias/vaultrun/internal/errs"
)

// User mirrors one row of the users table. TOTPSecret and the credential
// fields are ciphertext; PasswordHash is a bcrypt string; Salt is base64
// text feeding key derivation, immutable once set.
type User struct {
	ID              int64
	Username        string
	PasswordHash    string
	Salt            string
	TOTPSecret      string
	FailedAttempts  int
	LastFailedLogin *time.Time
	LockoutUntil    *time.Time
}

// CreateUser inserts a new account row and returns its id.
// Fails with a duplicate-kinded error if the username is taken.
func (s *Store) CreateUser(ctx context.Context, u *User) (int64, error) {
	exists, err := s.UserExists(ctx, u.Username)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errs.New(errs.KindDuplicate, "username already exists")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, salt, totp_secret) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Salt, u.TOTPSecret)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.New(errs.KindDuplicate, "username already exists")
		}
		return 0, errs.Wrap(errs.KindPersistence, "insert user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Wrap(errs.KindPersistence, "insert user", err)
	}
	u.ID = id
	return id, nil
}

// UserExists reports whether an account with the given username exists.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.KindPersistence, "query user", err)
	}
	return true, nil
}

// UserByUsername loads a full account row.
// Fails with a not-found-kinded error for an unknown username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	var (
		u          User
		lastFailed sql.NullInt64
		lockout    sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, salt, totp_secret,
		        failed_attempts, last_failed_login, lockout_until
		 FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.TOTPSecret,
			&u.FailedAttempts, &lastFailed, &lockout)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.KindNotFound, "account not found")
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "query user", err)
	}

	if lastFailed.Valid {
		t := time.Unix(lastFailed.Int64, 0)
		u.LastFailedLogin = &t
	}
	if lockout.Valid {
		t := time.Unix(lockout.Int64, 0)
		u.LockoutUntil = &t
	}
	return &u, nil
}

// RecordLoginFailure increments the failure counter and stamps the
// failure time for one account.
func (s *Store) RecordLoginFailure(ctx context.Context, username string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET failed_attempts = failed_attempts + 1, last_failed_login = ?
		 WHERE username = ?`,
		at.Unix(), username)
	return errs.Wrap(errs.KindPersistence, "record login failure", err)
}

// LockAccount sets the lockout gate; login is refused until the given time.
func (s *Store) LockAccount(ctx context.Context, username string, until time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET lockout_until = ? WHERE username = ?`,
		until.Unix(), username)
	return errs.Wrap(errs.KindPersistence, "lock account", err)
}

// ResetFailures clears the failure counter, failure timestamp and lockout
// gate after a fully successful authentication.
func (s *Store) ResetFailures(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET failed_attempts = 0, last_failed_login = NULL, lockout_until = NULL
		 WHERE username = ?`, username)
	return errs.Wrap(errs.KindPersistence, "reset failure counter", err)
}

// DeleteUser removes an account row. Credential rows cascade via the
// foreign key. Fails not-found if no row matched.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.KindPersistence, "delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.KindPersistence, "delete user", err)
	}
	if n == 0 {
		return errs.New(errs.KindNotFound, "account not found")
	}
	return nil
}
