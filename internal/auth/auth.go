// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements the two-phase authentication state machine:
//
//	StateUnauthenticated -> StatePasswordVerified -> StateAuthenticated
//
// The password step verifies the bcrypt hash and derives the session key;
// the TOTP step proves possession of the enrolled second factor. Failure
// at either step returns to StateUnauthenticated and clears any held key.
//
// Failed attempts count against a time-windowed lockout: five failures
// inside five minutes lock the account for five minutes. Lockout is a
// business outcome reported to the caller, never a fault.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/vaultrun/internal/errs"
	"github.com/jeranaias/vaultrun/internal/logging"
	"github.com/jeranaias/vaultrun/internal/security"
	"github.com/jeranaias/vaultrun/internal/store"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFailedAttempts is the number of failures that trigger a lockout.
	MaxFailedAttempts = 5

	// FailureWindow is how recent the previous failure must be for the
	// counter to trip the lockout.
	FailureWindow = 5 * time.Minute

	// LockoutDuration is how long a tripped lockout lasts.
	LockoutDuration = 5 * time.Minute

	// DefaultIssuer is the issuer name embedded in enrollment URIs.
	DefaultIssuer = "vaultrun"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrDuplicateUser indicates the username is already registered.
	ErrDuplicateUser = errs.New(errs.KindDuplicate, "username already exists")

	// ErrUserNotFound indicates no account exists for the username.
	ErrUserNotFound = errs.New(errs.KindNotFound, "account not found")

	// ErrInvalidCredentials indicates the master password did not verify.
	ErrInvalidCredentials = errs.New(errs.KindAuthentication, "invalid username or password")

	// ErrInvalidTOTP indicates the one-time code did not verify.
	ErrInvalidTOTP = errs.New(errs.KindAuthentication, "invalid one-time code")

	// ErrAccountLocked indicates the lockout window is still active.
	ErrAccountLocked = errs.New(errs.KindAccountLocked, "account temporarily locked")

	// ErrThrottled indicates the in-process attempt limiter refused the call.
	ErrThrottled = errs.New(errs.KindThrottled, "too many attempts, slow down")

	// ErrNotAuthenticated indicates an operation that needs a completed
	// two-phase login.
	ErrNotAuthenticated = errs.New(errs.KindAuthentication, "not authenticated")
)

// =============================================================================
// STATE
// =============================================================================

// State is the position in the two-phase login flow.
type State int

const (
	// StateUnauthenticated means no step has succeeded.
	StateUnauthenticated State = iota

	// StatePasswordVerified means the password step succeeded and the
	// TOTP step is pending. The session key is already held.
	StatePasswordVerified

	// StateAuthenticated means both steps succeeded.
	StateAuthenticated
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StatePasswordVerified:
		return "password_verified"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// =============================================================================
// AUTHENTICATOR
// =============================================================================

// Authenticator orchestrates registration, login, the TOTP second factor
// and lockout bookkeeping. One account session is active at a time.
type Authenticator struct {
	mu      sync.Mutex
	store   *store.Store
	keys    *security.KeyHolder
	log     logging.Logger
	issuer  string
	now     func() time.Time
	limiter *rate.Limiter

	maxAttempts   int
	failureWindow time.Duration
	lockoutFor    time.Duration

	state     State
	userID    int64
	username  string
	sessionID string
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithIssuer sets the issuer embedded in enrollment URIs.
func WithIssuer(issuer string) Option {
	return func(a *Authenticator) {
		if issuer != "" {
			a.issuer = issuer
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log logging.Logger) Option {
	return func(a *Authenticator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock overrides the time source. Tests use this to step through
// lockout windows and TOTP periods.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRateLimit overrides the in-process attempt limiter.
func WithRateLimit(l *rate.Limiter) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.limiter = l
		}
	}
}

// WithLockoutPolicy overrides the attempt ceiling and lockout duration.
// The failure window tracks the lockout duration.
func WithLockoutPolicy(maxAttempts int, lockoutFor time.Duration) Option {
	return func(a *Authenticator) {
		if maxAttempts > 0 {
			a.maxAttempts = maxAttempts
		}
		if lockoutFor > 0 {
			a.failureWindow = lockoutFor
			a.lockoutFor = lockoutFor
		}
	}
}

// New creates an Authenticator over the given store and key holder.
func New(st *store.Store, keys *security.KeyHolder, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:  st,
		keys:   keys,
		log:    logging.NopLogger{},
		issuer: DefaultIssuer,
		now:    time.Now,
		// A human types codes; anything faster than a couple of
		// attempts per second is a script.
		limiter:       rate.NewLimiter(rate.Every(500*time.Millisecond), 5),
		maxAttempts:   MaxFailedAttempts,
		failureWindow: FailureWindow,
		lockoutFor:    LockoutDuration,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current position in the login flow.
func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// UserID returns the id of the fully authenticated account, or 0.
func (a *Authenticator) UserID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAuthenticated {
		return 0
	}
	return a.userID
}

// SessionID returns the identifier of the active session, or "".
func (a *Authenticator) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Register creates a new account and returns the otpauth enrollment URI
// for external QR rendering.
//
// The password is hashed with bcrypt for login verification; separately, a
// fresh salt feeds key derivation, and the new TOTP secret is sealed under
// the derived key before the key is zeroed again. Registration never
// leaves a session key behind.
func (a *Authenticator) Register(ctx context.Context, username string, password []byte) (string, error) {
	if username == "" || len(password) == 0 {
		return "", errs.New(errs.KindValidation, "username and password are required")
	}
	if err := security.ValidatePasswordStrength(password); err != nil {
		return "", err
	}

	exists, err := a.store.UserExists(ctx, username)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicateUser
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return "", errs.Wrap(errs.KindCrypto, "register", err)
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		return "", errs.Wrap(errs.KindCrypto, "register", err)
	}

	key, err := security.DeriveKey(password, salt)
	if err != nil {
		return "", err
	}
	defer security.ZeroBytes(key)

	secret, err := security.GenerateTOTPSecret()
	if err != nil {
		return "", errs.Wrap(errs.KindCrypto, "register", err)
	}

	encSecret, err := security.EncryptString(secret, key)
	if err != nil {
		return "", err
	}

	if _, err := a.store.CreateUser(ctx, &store.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		TOTPSecret:   encSecret,
	}); err != nil {
		return "", err
	}

	a.log.Info(ctx, "account registered", "username", username)
	return security.EnrollmentURI(username, a.issuer, secret), nil
}

// =============================================================================
// LOGIN (PHASE ONE)
// =============================================================================

// Login verifies the master password. On success the session key is
// derived and held, and the machine moves to StatePasswordVerified; the
// caller must complete VerifyTOTP before the session counts as
// authenticated.
func (a *Authenticator) Login(ctx context.Context, username string, password []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.limiter.Allow() {
		return ErrThrottled
	}

	a.resetLocked()

	u, err := a.store.UserByUsername(ctx, username)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if locked, _ := a.lockedUntil(u); locked {
		a.log.Warn(ctx, "login refused, account locked", "username", username)
		return ErrAccountLocked
	}

	ok, err := security.CheckPassword(password, u.PasswordHash)
	if err != nil {
		return errs.Wrap(errs.KindCrypto, "login", err)
	}
	if !ok {
		if ferr := a.recordFailure(ctx, u); ferr != nil {
			return ferr
		}
		a.log.Warn(ctx, "login failed, bad password", "username", username)
		return ErrInvalidCredentials
	}

	key, err := security.DeriveKey(password, u.Salt)
	if err != nil {
		return err
	}
	a.keys.Store(key)
	security.ZeroBytes(key)

	a.state = StatePasswordVerified
	a.username = username
	a.sessionID = uuid.NewString()

	a.log.Info(ctx, "password verified, awaiting one-time code",
		"username", username, "session_id", a.sessionID)
	return nil
}

// =============================================================================
// TOTP (PHASE TWO)
// =============================================================================

// VerifyTOTP verifies the one-time code and completes authentication.
// The session key is re-derived from the password if it is not already
// held (so the call also works standalone). On success the failure
// counters are cleared and the machine moves to StateAuthenticated; on a
// bad code the same lockout bookkeeping as a password failure applies and
// the held key is cleared.
func (a *Authenticator) VerifyTOTP(ctx context.Context, username string, password []byte, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.limiter.Allow() {
		return ErrThrottled
	}

	u, err := a.store.UserByUsername(ctx, username)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if locked, _ := a.lockedUntil(u); locked {
		return ErrAccountLocked
	}

	key := a.keys.Get()
	if key == nil {
		if key, err = security.DeriveKey(password, u.Salt); err != nil {
			return err
		}
		a.keys.Store(key)
	}
	defer func() { security.ZeroBytes(key) }()

	// A wrong-key or tampered secret is a crypto failure, never treated
	// as an empty secret.
	secret, err := security.DecryptString(u.TOTPSecret, key)
	if err != nil {
		a.clearSessionLocked()
		a.log.Error(ctx, "failed to decrypt TOTP secret", "username", username)
		return err
	}

	if !security.VerifyTOTP(code, secret, a.now()) {
		if ferr := a.recordFailure(ctx, u); ferr != nil {
			a.clearSessionLocked()
			return ferr
		}
		a.clearSessionLocked()
		a.log.Warn(ctx, "one-time code rejected", "username", username)
		return ErrInvalidTOTP
	}

	if err := a.store.ResetFailures(ctx, username); err != nil {
		a.clearSessionLocked()
		return err
	}

	a.state = StateAuthenticated
	a.userID = u.ID
	a.username = username
	if a.sessionID == "" {
		a.sessionID = uuid.NewString()
	}

	a.log.Info(ctx, "authentication complete", "username", username, "session_id", a.sessionID)
	return nil
}

// =============================================================================
// LOGOUT AND ACCOUNT REMOVAL
// =============================================================================

// Logout clears the session key and returns to StateUnauthenticated.
func (a *Authenticator) Logout(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateUnauthenticated {
		a.log.Info(ctx, "logged out", "username", a.username)
	}
	a.clearSessionLocked()
}

// DeleteAccount removes the authenticated account and all of its
// credential rows, then ends the session.
func (a *Authenticator) DeleteAccount(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateAuthenticated {
		return ErrNotAuthenticated
	}

	if err := a.store.DeleteUser(ctx, a.userID); err != nil {
		return err
	}
	a.log.Info(ctx, "account deleted", "username", a.username)
	a.clearSessionLocked()
	return nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// lockedUntil reports whether the account's lockout gate is still in the
// future.
func (a *Authenticator) lockedUntil(u *store.User) (bool, time.Time) {
	if u.LockoutUntil == nil {
		return false, time.Time{}
	}
	until := *u.LockoutUntil
	if a.now().Before(until) {
		return true, until
	}
	return false, time.Time{}
}

// recordFailure applies the lockout policy for one failed attempt: when
// this failure is the fifth and the previous one happened inside the
// window, the account locks; otherwise the counter and timestamp advance.
func (a *Authenticator) recordFailure(ctx context.Context, u *store.User) error {
	now := a.now()
	if u.FailedAttempts+1 >= a.maxAttempts &&
		u.LastFailedLogin != nil &&
		now.Sub(*u.LastFailedLogin) <= a.failureWindow {
		a.log.Warn(ctx, "lockout triggered", "username", u.Username,
			"until", now.Add(a.lockoutFor))
		return a.store.LockAccount(ctx, u.Username, now.Add(a.lockoutFor))
	}
	return a.store.RecordLoginFailure(ctx, u.Username, now)
}

// clearSessionLocked wipes the key and all in-memory session state.
// Caller holds a.mu.
func (a *Authenticator) clearSessionLocked() {
	a.keys.Clear()
	a.state = StateUnauthenticated
	a.userID = 0
	a.username = ""
	a.sessionID = ""
}

// resetLocked drops any stale session before a new login attempt.
// Caller holds a.mu.
func (a *Authenticator) resetLocked() {
	if a.state != StateUnauthenticated {
		a.clearSessionLocked()
	}
}

// IsAuthErr reports whether err is one of the expected business outcomes
// rather than an internal fault.
func IsAuthErr(err error) bool {
	return errors.Is(err, ErrDuplicateUser) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidTOTP) ||
		errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrThrottled)
}
