// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Command handlers for vaultrun.
//
// Every vault operation runs inside a fresh two-phase login: the process
// is short-lived, so nothing survives between invocations except the
// encrypted database.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/vaultrun/internal/auth"
	"github.com/jeranaias/vaultrun/internal/config"
	"github.com/jeranaias/vaultrun/internal/logging"
	"github.com/jeranaias/vaultrun/internal/security"
	"github.com/jeranaias/vaultrun/internal/store"
	"github.com/jeranaias/vaultrun/internal/util"
	"github.com/jeranaias/vaultrun/internal/vault"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// App wires the store, authenticator and vault for one CLI invocation.
type App struct {
	cfg   *config.Config
	store *store.Store
	keys  *security.KeyHolder
	auth  *auth.Authenticator
	vault *vault.Vault
	log   logging.Logger
}

// NewApp loads configuration, opens the vault database and wires the
// engine. Call Close when done.
func NewApp(args Args) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if args.Verbose {
		level = logging.ParseLevel("debug")
	}
	log := logging.NewDefault(level)

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	keys := security.NewKeyHolder()
	authn := auth.New(st, keys,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithLogger(log),
		auth.WithLockoutPolicy(cfg.Auth.MaxLoginAttempts, time.Duration(cfg.Auth.LockoutMinutes)*time.Minute),
		auth.WithRateLimit(rate.NewLimiter(rate.Every(500*time.Millisecond), cfg.Auth.ThrottleBurst)),
	)
	vlt := vault.New(st, keys, authn, vault.WithLogger(log))

	return &App{
		cfg:   cfg,
		store: st,
		keys:  keys,
		auth:  authn,
		vault: vlt,
		log:   log,
	}, nil
}

// Close releases the session key and the database.
func (a *App) Close() error {
	a.auth.Logout(context.Background())
	return a.store.Close()
}

// =============================================================================
// REGISTRATION
// =============================================================================

// HandleRegister creates a new account.
func (a *App) HandleRegister(ctx context.Context, args Args) error {
	if err := RequiresTTY("register"); err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("Create a vaultrun account"))

	username, err := ReadLine("Username: ")
	if err != nil {
		return err
	}

	fmt.Println(DimStyle.Render("Master password: at least 8 characters with upper, lower and a digit."))
	password, err := ReadPasswordConfirmed("Master password: ")
	if err != nil {
		return err
	}
	defer zero(password)

	uri, err := a.auth.Register(ctx, username, password)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(SuccessStyle.Render("Account created."))
	fmt.Println()
	fmt.Println("Add this account to your authenticator app:")
	fmt.Println()
	fmt.Println("  " + ValueStyle.Render(uri))
	fmt.Println()
	fmt.Println(WarningStyle.Render("Store the URI now; the TOTP secret is not shown again."))
	return nil
}

// =============================================================================
// LOGIN (SHARED BY VAULT COMMANDS)
// =============================================================================

// login runs the full two-phase authentication interactively.
func (a *App) login(ctx context.Context) error {
	if err := RequiresTTY("log in"); err != nil {
		return err
	}

	username, err := ReadLine("Username: ")
	if err != nil {
		return err
	}
	password, err := ReadPassword("Master password: ")
	if err != nil {
		return err
	}
	defer zero(password)

	if err := a.auth.Login(ctx, username, password); err != nil {
		return err
	}

	code, err := ReadLine("One-time code: ")
	if err != nil {
		return err
	}
	return a.auth.VerifyTOTP(ctx, username, password, code)
}

// =============================================================================
// CREDENTIAL COMMANDS
// =============================================================================

// HandleAdd stores credentials for a site.
func (a *App) HandleAdd(ctx context.Context, args Args) error {
	site := args.Site
	if site == "" {
		return fmt.Errorf("usage: vaultrun add <site>")
	}
	if err := a.login(ctx); err != nil {
		return err
	}

	siteUser, err := ReadLine("Site username: ")
	if err != nil {
		return err
	}
	sitePass, err := a.readSitePassword(args)
	if err != nil {
		return err
	}
	defer zero(sitePass)

	if err := a.vault.Store(ctx, site, siteUser, string(sitePass)); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Stored credentials for " + site))
	return nil
}

// HandleGet retrieves credentials for a site. The password is masked
// unless --show is given.
func (a *App) HandleGet(ctx context.Context, args Args) error {
	site := args.Site
	if site == "" {
		return fmt.Errorf("usage: vaultrun get <site> [--show]")
	}
	if err := a.login(ctx); err != nil {
		return err
	}

	entry, err := a.vault.Get(ctx, site)
	if err != nil {
		return err
	}

	password := entry.Password
	if !args.Parser.BoolFlag("show") {
		password = util.MaskSecret(password, 0)
	}

	fmt.Println()
	fmt.Printf("%s %s\n", RenderLabel("Site:"), ValueStyle.Render(entry.Site))
	fmt.Printf("%s %s\n", RenderLabel("Username:"), ValueStyle.Render(entry.Username))
	fmt.Printf("%s %s\n", RenderLabel("Password:"), ValueStyle.Render(password))
	if !args.Parser.BoolFlag("show") {
		fmt.Println()
		fmt.Println(DimStyle.Render("Run with --show to print the password in the clear."))
	}
	return nil
}

// HandleUpdate replaces the credentials stored for a site.
func (a *App) HandleUpdate(ctx context.Context, args Args) error {
	site := args.Site
	if site == "" {
		return fmt.Errorf("usage: vaultrun update <site>")
	}
	if err := a.login(ctx); err != nil {
		return err
	}

	siteUser, err := ReadLine("New site username: ")
	if err != nil {
		return err
	}
	sitePass, err := a.readSitePassword(args)
	if err != nil {
		return err
	}
	defer zero(sitePass)

	if err := a.vault.Update(ctx, site, siteUser, string(sitePass)); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Updated credentials for " + site))
	return nil
}

// HandleDelete removes the credentials stored for a site.
func (a *App) HandleDelete(ctx context.Context, args Args) error {
	site := args.Site
	if site == "" {
		return fmt.Errorf("usage: vaultrun delete <site> [--confirm]")
	}

	confirmed, err := RequireConfirmation(args.Confirm, "delete the credentials for "+site)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	if err := a.vault.Delete(ctx, site); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Deleted credentials for " + site))
	return nil
}

// HandleList lists the stored sites.
func (a *App) HandleList(ctx context.Context, args Args) error {
	if err := a.login(ctx); err != nil {
		return err
	}

	sites, err := a.vault.Sites(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(sites) == 0 {
		fmt.Println(DimStyle.Render("No credentials stored yet. Use 'vaultrun add <site>' to begin."))
		return nil
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Stored sites (%d)", len(sites))))
	for _, site := range sites {
		fmt.Println("  " + ValueStyle.Render(util.TruncateRunes(site, GetTerminalWidth()-4)))
	}
	return nil
}

// readSitePassword reads the site password, offering a generated one
// first. An empty response at the generate prompt falls through to
// manual entry.
func (a *App) readSitePassword(args Args) ([]byte, error) {
	if args.Parser.BoolFlag("generate") {
		length := args.Parser.FlagIntOrDefault("length", a.cfg.Generator.DefaultLength)
		generated, err := security.GeneratePassword(length)
		if err != nil {
			return nil, err
		}
		fmt.Printf("%s %s\n", RenderLabel("Generated:"), ValueStyle.Render(generated))
		return []byte(generated), nil
	}
	return ReadPasswordConfirmed("Site password: ")
}

// =============================================================================
// PASSWORD GENERATOR
// =============================================================================

// HandleGenerate prints a freshly generated password.
func (a *App) HandleGenerate(ctx context.Context, args Args) error {
	length := args.Parser.FlagIntOrDefault("length", a.cfg.Generator.DefaultLength)

	password, err := security.GeneratePassword(length)
	if err != nil {
		return err
	}

	fmt.Println(password)
	return nil
}

// =============================================================================
// ACCOUNT MANAGEMENT
// =============================================================================

// HandleAccount dispatches account subcommands.
func (a *App) HandleAccount(ctx context.Context, args Args) error {
	switch args.Subcommand {
	case "delete":
		return a.handleAccountDelete(ctx, args)
	default:
		return fmt.Errorf("usage: vaultrun account delete [--confirm]")
	}
}

// handleAccountDelete removes the account and every stored credential.
func (a *App) handleAccountDelete(ctx context.Context, args Args) error {
	confirmed, err := RequireConfirmation(args.Confirm,
		"permanently delete your account and every stored credential")
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	if err := a.auth.DeleteAccount(ctx); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("Account deleted."))
	return nil
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig shows the active configuration.
func (a *App) HandleConfig(ctx context.Context, args Args) error {
	switch args.Subcommand {
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "", "show":
		dbPath, err := a.cfg.DatabasePath()
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(TitleStyle.Render("vaultrun configuration"))
		fmt.Printf("%s %s\n", RenderLabel("Database:"), ValueStyle.Render(dbPath))
		fmt.Printf("%s %s\n", RenderLabel("Issuer:"), ValueStyle.Render(a.cfg.Auth.Issuer))
		fmt.Printf("%s %s\n", RenderLabel("Lockout:"),
			ValueStyle.Render(fmt.Sprintf("%d attempts / %d min", a.cfg.Auth.MaxLoginAttempts, a.cfg.Auth.LockoutMinutes)))
		fmt.Printf("%s %s\n", RenderLabel("Gen length:"), ValueStyle.Render(fmt.Sprint(a.cfg.Generator.DefaultLength)))
		fmt.Printf("%s %s\n", RenderLabel("Log level:"), ValueStyle.Render(a.cfg.Logging.Level))
		return nil
	default:
		return fmt.Errorf("usage: vaultrun config [show|path]")
	}
}

// =============================================================================
// ERROR RENDERING
// =============================================================================

// RenderError prints an error in a user-facing form. Expected business
// outcomes (bad password, lockout, missing site) print without a stack
// of wrapped context.
func RenderError(err error) {
	if errors.Is(err, auth.ErrAccountLocked) {
		fmt.Println(WarningStyle.Render("Account locked. Try again in a few minutes."))
		return
	}
	fmt.Println(ErrorStyle.Render("Error: " + err.Error()))
}
