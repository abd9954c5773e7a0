// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vault implements the encrypted credential store. Every entry
// is scoped to the authenticated account and both secret fields are
// sealed with the session key before they reach persistence; plaintext
// exists only in memory, only while a call is in flight.
package vault

import (
	"context"

	"github.com/jeranaias/vaultrun/internal/errs"
	"github.com/jeranaias/vaultrun/internal/logging"
	"github.com/jeranaias/vaultrun/internal/security"
	"github.com/jeranaias/vaultrun/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotAuthenticated indicates no completed login session.
	ErrNotAuthenticated = errs.New(errs.KindAuthentication, "not authenticated")

	// ErrDuplicateSite indicates the account already has an entry for the site.
	ErrDuplicateSite = errs.New(errs.KindDuplicate, "credentials for site already exist")

	// ErrSiteNotFound indicates the account has no entry for the site.
	ErrSiteNotFound = errs.New(errs.KindNotFound, "no credentials for site")
)

// =============================================================================
// TYPES
// =============================================================================

// Session exposes the identity of the active login. A zero UserID means
// nobody is fully authenticated.
type Session interface {
	UserID() int64
}

// Entry is one decrypted credential.
type Entry struct {
	Site     string
	Username string
	Password string
}

// Vault performs credential operations on behalf of the active session.
type Vault struct {
	store   *store.Store
	keys    *security.KeyHolder
	session Session
	log     logging.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the structured logger.
func WithLogger(log logging.Logger) Option {
	return func(v *Vault) {
		if log != nil {
			v.log = log
		}
	}
}

// New creates a Vault bound to the given store, key holder and session.
func New(st *store.Store, keys *security.KeyHolder, session Session, opts ...Option) *Vault {
	v := &Vault{
		store:   st,
		keys:    keys,
		session: session,
		log:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Store encrypts and saves a new credential for the site. At most one
// entry exists per site per account.
func (v *Vault) Store(ctx context.Context, site, username, password string) error {
	if err := validateSite(site); err != nil {
		return err
	}
	if username == "" || password == "" {
		return errs.New(errs.KindValidation, "username and password are required")
	}

	uid, key, err := v.unlock()
	if err != nil {
		return err
	}
	defer security.ZeroBytes(key)

	encUser, err := security.EncryptString(username, key)
	if err != nil {
		return err
	}
	encPass, err := security.EncryptString(password, key)
	if err != nil {
		return err
	}

	if err := v.store.InsertCredential(ctx, &store.Credential{
		UserID:       uid,
		SiteName:     site,
		SiteUsername: encUser,
		SitePassword: encPass,
	}); err != nil {
		if errs.Is(err, errs.KindDuplicate) {
			return ErrDuplicateSite
		}
		return err
	}

	v.log.Info(ctx, "credential stored", "site", site)
	return nil
}

// Get loads and decrypts the credential for the site.
//
// A ciphertext that fails to open is reported as a crypto error, never
// as a missing entry: the row exists, its contents cannot be trusted.
func (v *Vault) Get(ctx context.Context, site string) (*Entry, error) {
	if err := validateSite(site); err != nil {
		return nil, err
	}

	uid, key, err := v.unlock()
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(key)

	c, err := v.store.Credential(ctx, uid, site)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}

	username, err := security.DecryptString(c.SiteUsername, key)
	if err != nil {
		v.log.Error(ctx, "credential failed to decrypt", "site", site)
		return nil, err
	}
	password, err := security.DecryptString(c.SitePassword, key)
	if err != nil {
		v.log.Error(ctx, "credential failed to decrypt", "site", site)
		return nil, err
	}

	return &Entry{Site: site, Username: username, Password: password}, nil
}

// Update re-encrypts and overwrites both fields of an existing entry.
func (v *Vault) Update(ctx context.Context, site, username, password string) error {
	if err := validateSite(site); err != nil {
		return err
	}
	if username == "" || password == "" {
		return errs.New(errs.KindValidation, "username and password are required")
	}

	uid, key, err := v.unlock()
	if err != nil {
		return err
	}
	defer security.ZeroBytes(key)

	encUser, err := security.EncryptString(username, key)
	if err != nil {
		return err
	}
	encPass, err := security.EncryptString(password, key)
	if err != nil {
		return err
	}

	if err := v.store.UpdateCredential(ctx, &store.Credential{
		UserID:       uid,
		SiteName:     site,
		SiteUsername: encUser,
		SitePassword: encPass,
	}); err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return ErrSiteNotFound
		}
		return err
	}

	v.log.Info(ctx, "credential updated", "site", site)
	return nil
}

// Delete removes the entry for the site.
func (v *Vault) Delete(ctx context.Context, site string) error {
	if err := validateSite(site); err != nil {
		return err
	}

	uid, err := v.requireSession()
	if err != nil {
		return err
	}

	if err := v.store.DeleteCredential(ctx, uid, site); err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return ErrSiteNotFound
		}
		return err
	}

	v.log.Info(ctx, "credential deleted", "site", site)
	return nil
}

// Sites lists the site names the account has entries for. Names are
// stored in the clear; only the fields behind them are sealed.
func (v *Vault) Sites(ctx context.Context) ([]string, error) {
	uid, err := v.requireSession()
	if err != nil {
		return nil, err
	}
	return v.store.ListSites(ctx, uid)
}

// =============================================================================
// INTERNAL
// =============================================================================

// unlock resolves the active account and a copy of the session key.
// Failing either check means the caller never completed the two-phase
// login. The returned key is the caller's to zero.
func (v *Vault) unlock() (int64, []byte, error) {
	uid, err := v.requireSession()
	if err != nil {
		return 0, nil, err
	}
	key := v.keys.Get()
	if key == nil {
		return 0, nil, ErrNotAuthenticated
	}
	return uid, key, nil
}

// requireSession resolves the active account for operations that do not
// touch ciphertext.
func (v *Vault) requireSession() (int64, error) {
	uid := v.session.UserID()
	if uid == 0 {
		return 0, ErrNotAuthenticated
	}
	return uid, nil
}

func validateSite(site string) error {
	if site == "" {
		return errs.New(errs.KindValidation, "site name is required")
	}
	return nil
}
