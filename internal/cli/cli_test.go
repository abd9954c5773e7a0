// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "positional only",
			args: []string{"example.com"},
			validate: func(t *testing.T, p *ArgParser) {
				require.Equal(t, "example.com", p.Positional(0))
				require.Equal(t, 1, p.PositionalCount())
			},
		},
		{
			name: "flag with space value",
			args: []string{"--length", "16"},
			validate: func(t *testing.T, p *ArgParser) {
				require.Equal(t, "16", p.Flag("length"))
				require.Equal(t, 16, p.FlagIntOrDefault("length", 8))
			},
		},
		{
			name: "flag with equals value",
			args: []string{"--length=12"},
			validate: func(t *testing.T, p *ArgParser) {
				require.Equal(t, "12", p.Flag("length"))
			},
		},
		{
			name: "boolean flag",
			args: []string{"example.com", "--show"},
			validate: func(t *testing.T, p *ArgParser) {
				require.True(t, p.BoolFlag("show"))
				require.Equal(t, "example.com", p.Positional(0))
			},
		},
		{
			name: "explicit boolean",
			args: []string{"--show=false"},
			validate: func(t *testing.T, p *ArgParser) {
				require.False(t, p.BoolFlag("show"))
				require.True(t, p.HasFlag("show"))
			},
		},
		{
			name: "short flag",
			args: []string{"-l", "10"},
			validate: func(t *testing.T, p *ArgParser) {
				require.Equal(t, "10", p.Flag("l"))
			},
		},
		{
			name: "mixed",
			args: []string{"example.com", "--generate", "--length", "20"},
			validate: func(t *testing.T, p *ArgParser) {
				require.Equal(t, "example.com", p.Positional(0))
				require.True(t, p.BoolFlag("generate"))
				require.Equal(t, "20", p.Flag("length"))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewArgParser(tc.args)
			tc.validate(t, p)
		})
	}
}

func TestArgParser_Defaults(t *testing.T) {
	p := NewArgParser(nil)
	require.Equal(t, "", p.Positional(0))
	require.Equal(t, "", p.Flag("missing"))
	require.False(t, p.BoolFlag("missing"))
	require.Equal(t, 16, p.FlagIntOrDefault("length", 16))
	require.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
}

func TestArgParser_BadIntFallsBack(t *testing.T) {
	p := NewArgParser([]string{"--length", "long"})
	require.Equal(t, 16, p.FlagIntOrDefault("length", 16))
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdHelp},
		{[]string{"help"}, CmdHelp},
		{[]string{"--help"}, CmdHelp},
		{[]string{"version"}, CmdVersion},
		{[]string{"register"}, CmdRegister},
		{[]string{"signup"}, CmdRegister},
		{[]string{"add", "example.com"}, CmdAdd},
		{[]string{"store", "example.com"}, CmdAdd},
		{[]string{"get", "example.com"}, CmdGet},
		{[]string{"update", "example.com"}, CmdUpdate},
		{[]string{"delete", "example.com"}, CmdDelete},
		{[]string{"rm", "example.com"}, CmdDelete},
		{[]string{"list"}, CmdList},
		{[]string{"ls"}, CmdList},
		{[]string{"generate"}, CmdGenerate},
		{[]string{"account", "delete"}, CmdAccount},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"bogus"}, CmdHelp},
	}

	for _, tc := range tests {
		cmd, _ := ParseArgs(tc.argv)
		require.Equal(t, tc.want, cmd, "argv %v", tc.argv)
	}
}

func TestParseArgs_SiteAndFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"get", "example.com", "--show", "--verbose"})
	require.Equal(t, CmdGet, cmd)
	require.Equal(t, "example.com", args.Site)
	require.True(t, args.Parser.BoolFlag("show"))
	require.True(t, args.Verbose)
}

func TestParseArgs_ConfirmFlag(t *testing.T) {
	cmd, args := ParseArgs([]string{"delete", "example.com", "--confirm"})
	require.Equal(t, CmdDelete, cmd)
	require.True(t, args.Confirm)
	require.Equal(t, "example.com", args.Site)
}

func TestParseArgs_AccountSubcommand(t *testing.T) {
	_, args := ParseArgs([]string{"account", "delete"})
	require.Equal(t, "delete", args.Subcommand)
}
