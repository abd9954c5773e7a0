// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// vaultrun.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments
//   - App: Wires the store, authenticator and vault for one invocation
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	app, err := cli.NewApp(args)
//	// ...
//	switch cmd {
//	case cli.CmdAdd:
//	    err = app.HandleAdd(ctx, args)
//	case cli.CmdGet:
//	    err = app.HandleGet(ctx, args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - register: Create an account and print the TOTP enrollment URI
//   - add/get/update/delete: Credential operations, each inside a fresh
//     two-phase login
//   - list: Stored site names
//   - generate: Strong password generation
//   - account delete: Remove the account and all credentials
//   - config: Show the active configuration
//
// Secret input is read without echo; passwords are zeroed after use.
package cli
