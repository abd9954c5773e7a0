// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the SQLite persistence layer for the vault.
//
// The store holds exactly two tables: accounts and their encrypted
// credential entries. Every query uses parameter binding; no value is ever
// concatenated into SQL text. Stored secrets arrive here already
// encrypted — the store never sees plaintext credential material.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Schema creates the two vault tables. Timestamps are stored as unix
// seconds; NULL means unset.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	username          TEXT UNIQUE NOT NULL,
	password_hash     TEXT NOT NULL,
	salt              TEXT NOT NULL,
	totp_secret       TEXT NOT NULL,
	failed_attempts   INTEGER NOT NULL DEFAULT 0,
	last_failed_login INTEGER,
	lockout_until     INTEGER
);

CREATE TABLE IF NOT EXISTS credentials (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	site_name     TEXT NOT NULL,
	site_username TEXT NOT NULL,
	site_password TEXT NOT NULL,
	UNIQUE(user_id, site_name)
);
`

// Store wraps the SQLite database holding accounts and credentials.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the vault database at path and initializes the
// schema. The parent directory is created if needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON", // Required for ON DELETE CASCADE
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. Callers pre-check for duplicates; this is the backstop for the
// race-free constraint in the schema itself.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
