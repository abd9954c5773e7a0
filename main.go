// vaultrun - An encrypted credential vault for the command line.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/vaultrun/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	// Commands that need no engine wiring
	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()
		return
	case cli.CmdVersion:
		cli.HandleVersion()
		return
	}

	app, err := cli.NewApp(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch cmd {
	case cli.CmdRegister:
		err = app.HandleRegister(ctx, args)
	case cli.CmdAdd:
		err = app.HandleAdd(ctx, args)
	case cli.CmdGet:
		err = app.HandleGet(ctx, args)
	case cli.CmdUpdate:
		err = app.HandleUpdate(ctx, args)
	case cli.CmdDelete:
		err = app.HandleDelete(ctx, args)
	case cli.CmdList:
		err = app.HandleList(ctx, args)
	case cli.CmdGenerate:
		err = app.HandleGenerate(ctx, args)
	case cli.CmdAccount:
		err = app.HandleAccount(ctx, args)
	case cli.CmdConfig:
		err = app.HandleConfig(ctx, args)
	default:
		cli.HandleHelp()
	}

	app.Close()
	if err != nil {
		cli.RenderError(err)
		os.Exit(1)
	}
}
