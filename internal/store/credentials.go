// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// credentials.go - Row-level operations over the credentials table.
//
// Both secret columns hold AEAD ciphertext keyed by the owner's derived
// key. At most one row exists per (user_id, site_name).

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jeranaias/vaultrun/internal/errs"
)

// Credential mirrors one row of the credentials table. SiteUsername and
// SitePassword are ciphertext payloads.
type Credential struct {
	ID           int64
	UserID       int64
	SiteName     string
	SiteUsername string
	SitePassword string
}

// CredentialExists reports whether the owner already has an entry for the site.
func (s *Store) CredentialExists(ctx context.Context, userID int64, site string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM credentials WHERE user_id = ? AND site_name = ?`,
		userID, site).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.KindPersistence, "query credential", err)
	}
	return true, nil
}

// InsertCredential stores a new encrypted entry.
// Fails with a duplicate-kinded error if the (owner, site) pair exists.
func (s *Store) InsertCredential(ctx context.Context, c *Credential) error {
	exists, err := s.CredentialExists(ctx, c.UserID, c.SiteName)
	if err != nil {
		return err
	}
	if exists {
		return errs.New(errs.KindDuplicate, "credentials for site already exist")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (user_id, site_name, site_username, site_password)
		 VALUES (?, ?, ?, ?)`,
		c.UserID, c.SiteName, c.SiteUsername, c.SitePassword)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.KindDuplicate, "credentials for site already exist")
		}
		return errs.Wrap(errs.KindPersistence, "insert credential", err)
	}

	if c.ID, err = res.LastInsertId(); err != nil {
		return errs.Wrap(errs.KindPersistence, "insert credential", err)
	}
	return nil
}

// Credential loads the encrypted entry for (owner, site).
// Fails not-found if no row matches.
func (s *Store) Credential(ctx context.Context, userID int64, site string) (*Credential, error) {
	c := Credential{UserID: userID, SiteName: site}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, site_username, site_password
		 FROM credentials WHERE user_id = ? AND site_name = ?`,
		userID, site).Scan(&c.ID, &c.SiteUsername, &c.SitePassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.KindNotFound, "no credentials for site")
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "query credential", err)
	}
	return &c, nil
}

// UpdateCredential overwrites both encrypted fields for (owner, site).
// Fails not-found if no row matched.
func (s *Store) UpdateCredential(ctx context.Context, c *Credential) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET site_username = ?, site_password = ?
		 WHERE user_id = ? AND site_name = ?`,
		c.SiteUsername, c.SitePassword, c.UserID, c.SiteName)
	if err != nil {
		return errs.Wrap(errs.KindPersistence, "update credential", err)
	}
	return s.requireMatch(res, "no credentials for site")
}

// DeleteCredential removes the entry for (owner, site).
// Fails not-found if no row matched.
func (s *Store) DeleteCredential(ctx context.Context, userID int64, site string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE user_id = ? AND site_name = ?`,
		userID, site)
	if err != nil {
		return errs.Wrap(errs.KindPersistence, "delete credential", err)
	}
	return s.requireMatch(res, "no credentials for site")
}

// ListSites returns the site names stored for the owner. Order is not
// guaranteed.
func (s *Store) ListSites(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site_name FROM credentials WHERE user_id = ?`, userID)
	if err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "list sites", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, errs.Wrap(errs.KindPersistence, "list sites", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "list sites", err)
	}
	return sites, nil
}

// requireMatch converts a zero-row write into a not-found error.
func (s *Store) requireMatch(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.KindPersistence, "rows affected", err)
	}
	if n == 0 {
		return errs.New(errs.KindNotFound, msg)
	}
	return nil
}
