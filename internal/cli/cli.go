// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for vaultrun.

package cli

import (
	"fmt"
	"os"
	"runtime"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdVersion
	CmdRegister
	CmdAdd
	CmdGet
	CmdUpdate
	CmdDelete
	CmdList
	CmdGenerate
	CmdAccount
	CmdConfig
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose bool
	Confirm bool

	// Command-specific
	Site       string
	Subcommand string

	// Parser over the remaining arguments
	Parser *ArgParser
}

const usageText = `vaultrun - encrypted credential vault for the command line

Vaultrun stores site credentials in a local SQLite vault. Every secret
is sealed with AES-256-GCM under a key derived from your master
password, and logins require a TOTP code from your authenticator app.

Usage:
  vaultrun register             Create an account (prints TOTP enrollment URI)
  vaultrun add <site>           Store credentials for a site
  vaultrun get <site> [--show]  Retrieve credentials for a site
  vaultrun update <site>        Replace credentials for a site
  vaultrun delete <site>        Remove credentials for a site
  vaultrun list                 List stored sites
  vaultrun generate [--length n] Generate a strong password (8-20 chars)
  vaultrun account delete       Delete your account and all stored credentials
  vaultrun config [show|path]   Configuration
  vaultrun version              Show version information
  vaultrun help                 Show this help

Flags:
  --show       Print the password in the clear (get)
  --length n   Generated password length, 8 to 20 (generate)
  --confirm    Skip interactive confirmation (delete, account delete)
  --verbose    Enable debug logging

Environment:
  VAULTRUN_DB_PATH     Vault database location (default ~/.vaultrun/vault.db)
  VAULTRUN_ISSUER      Issuer name in TOTP enrollment URIs
  VAULTRUN_LOG_LEVEL   Log level: debug, info, warn, error

After five failed login attempts within five minutes the account locks
for five minutes.
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments into a command and its arguments.
func ParseArgs(argv []string) (Command, Args) {
	args := Args{}

	if len(argv) == 0 {
		return CmdHelp, args
	}

	cmd := CmdHelp
	switch argv[0] {
	case "register", "signup":
		cmd = CmdRegister
	case "add", "store":
		cmd = CmdAdd
	case "get", "show":
		cmd = CmdGet
	case "update":
		cmd = CmdUpdate
	case "delete", "rm", "remove":
		cmd = CmdDelete
	case "list", "ls", "sites":
		cmd = CmdList
	case "generate", "gen":
		cmd = CmdGenerate
	case "account":
		cmd = CmdAccount
	case "config":
		cmd = CmdConfig
	case "version", "-v", "--version":
		cmd = CmdVersion
	case "help", "-h", "--help":
		cmd = CmdHelp
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", argv[0])
		return CmdHelp, args
	}

	parser := NewArgParser(argv[1:])
	args.Parser = parser
	args.Verbose = parser.BoolFlag("verbose")
	args.Confirm = parser.BoolFlag("confirm")
	args.Site = parser.Positional(0)
	args.Subcommand = parser.Positional(0)

	return cmd, args
}

// HandleHelp prints usage information.
func HandleHelp() {
	fmt.Print(usageText)
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("vaultrun %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
