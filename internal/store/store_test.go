// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vaultrun/internal/errs"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser(t *testing.T, s *Store, username string) *User {
	t.Helper()
	u := &User{
		Username:     username,
		PasswordHash: "$2a$12$fakehashfakehashfakehashfakehashfakehashfakehashfakeha",
		Salt:         "c2FsdHNhbHRzYWx0c2FsdA==",
		TOTPSecret:   "ciphertext",
	}
	_, err := s.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

// =============================================================================
// USER TESTS
// =============================================================================

func TestStore_CreateAndLoadUser(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u := testUser(t, s, "alice")
	require.NotZero(t, u.ID)

	got, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.Equal(t, u.Salt, got.Salt)
	require.Equal(t, u.TOTPSecret, got.TOTPSecret)
	require.Zero(t, got.FailedAttempts)
	require.Nil(t, got.LastFailedLogin)
	require.Nil(t, got.LockoutUntil)
}

func TestStore_DuplicateUsername(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	testUser(t, s, "alice")

	_, err := s.CreateUser(ctx, &User{
		Username: "alice", PasswordHash: "h", Salt: "s", TOTPSecret: "t",
	})
	require.Error(t, err)
	require.Equal(t, errs.KindDuplicate, errs.KindOf(err))
}

func TestStore_UsernameCaseSensitive(t *testing.T) {
	s := testStore(t)

	testUser(t, s, "alice")
	testUser(t, s, "Alice") // distinct account

	exists, err := s.UserExists(context.Background(), "ALICE")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStore_UnknownUserNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.UserByUsername(context.Background(), "nobody")
	require.Error(t, err)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestStore_FailureBookkeeping(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	testUser(t, s, "alice")

	at := time.Now().Truncate(time.Second)
	require.NoError(t, s.RecordLoginFailure(ctx, "alice", at))
	require.NoError(t, s.RecordLoginFailure(ctx, "alice", at))

	u, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, u.FailedAttempts)
	require.NotNil(t, u.LastFailedLogin)
	require.Equal(t, at.Unix(), u.LastFailedLogin.Unix())

	until := at.Add(5 * time.Minute)
	require.NoError(t, s.LockAccount(ctx, "alice", until))
	u, err = s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u.LockoutUntil)
	require.Equal(t, until.Unix(), u.LockoutUntil.Unix())

	require.NoError(t, s.ResetFailures(ctx, "alice"))
	u, err = s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, u.FailedAttempts)
	require.Nil(t, u.LastFailedLogin)
	require.Nil(t, u.LockoutUntil)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := testUser(t, s, "alice")

	require.NoError(t, s.InsertCredential(ctx, &Credential{
		UserID: u.ID, SiteName: "example.com", SiteUsername: "eu", SitePassword: "ep",
	}))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.Credential(ctx, u.ID, "example.com")
	require.Equal(t, errs.KindNotFound, errs.KindOf(err), "credentials must cascade on account deletion")

	err = s.DeleteUser(ctx, u.ID)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

// =============================================================================
// CREDENTIAL TESTS
// =============================================================================

func TestStore_CredentialCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := testUser(t, s, "alice")

	c := &Credential{UserID: u.ID, SiteName: "example.com", SiteUsername: "enc-u", SitePassword: "enc-p"}
	require.NoError(t, s.InsertCredential(ctx, c))
	require.NotZero(t, c.ID)

	got, err := s.Credential(ctx, u.ID, "example.com")
	require.NoError(t, err)
	require.Equal(t, "enc-u", got.SiteUsername)
	require.Equal(t, "enc-p", got.SitePassword)

	c.SiteUsername, c.SitePassword = "enc-u2", "enc-p2"
	require.NoError(t, s.UpdateCredential(ctx, c))
	got, err = s.Credential(ctx, u.ID, "example.com")
	require.NoError(t, err)
	require.Equal(t, "enc-u2", got.SiteUsername)

	require.NoError(t, s.DeleteCredential(ctx, u.ID, "example.com"))
	_, err = s.Credential(ctx, u.ID, "example.com")
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestStore_DuplicateSite(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := testUser(t, s, "alice")

	c := &Credential{UserID: u.ID, SiteName: "example.com", SiteUsername: "a", SitePassword: "b"}
	require.NoError(t, s.InsertCredential(ctx, c))

	err := s.InsertCredential(ctx, &Credential{
		UserID: u.ID, SiteName: "example.com", SiteUsername: "x", SitePassword: "y",
	})
	require.Equal(t, errs.KindDuplicate, errs.KindOf(err))
}

func TestStore_SiteUniquePerOwner(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	alice := testUser(t, s, "alice")
	bob := testUser(t, s, "bob")

	// The same site name under different owners is allowed.
	require.NoError(t, s.InsertCredential(ctx, &Credential{
		UserID: alice.ID, SiteName: "example.com", SiteUsername: "a", SitePassword: "b",
	}))
	require.NoError(t, s.InsertCredential(ctx, &Credential{
		UserID: bob.ID, SiteName: "example.com", SiteUsername: "c", SitePassword: "d",
	}))
}

func TestStore_UpdateDeleteMissingSite(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := testUser(t, s, "alice")

	err := s.UpdateCredential(ctx, &Credential{
		UserID: u.ID, SiteName: "missing.com", SiteUsername: "a", SitePassword: "b",
	})
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))

	err = s.DeleteCredential(ctx, u.ID, "missing.com")
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestStore_ListSites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := testUser(t, s, "alice")

	sites, err := s.ListSites(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, sites)

	for _, site := range []string{"a.com", "b.com", "c.com"} {
		require.NoError(t, s.InsertCredential(ctx, &Credential{
			UserID: u.ID, SiteName: site, SiteUsername: "u", SitePassword: "p",
		}))
	}

	sites, err = s.ListSites(ctx, u.ID)
	require.NoError(t, err)
	sort.Strings(sites)
	require.Equal(t, []string{"a.com", "b.com", "c.com"}, sites)
}
