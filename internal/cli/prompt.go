// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Interactive input for the vaultrun CLI.
//
// USABILITY: TTY detection for proper terminal handling
//
// All secret input goes through ReadPassword so nothing typed is ever
// echoed to the terminal. The returned buffers are the caller's to zero.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadLine prompts and reads a single line from stdin with echo.
func ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// ReadPassword prompts and reads a secret from stdin without echo.
func ReadPassword(prompt string) ([]byte, error) {
	if err := RequiresTTY("read a password"); err != nil {
		return nil, err
	}
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirmed reads a secret twice and verifies both entries
// match. Used during registration and credential updates.
func ReadPasswordConfirmed(prompt string) ([]byte, error) {
	first, err := ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	second, err := ReadPassword("Confirm: ")
	if err != nil {
		zero(first)
		return nil, err
	}
	defer zero(second)

	if string(first) != string(second) {
		zero(first)
		return nil, fmt.Errorf("entries did not match")
	}
	return first, nil
}

// RequireConfirmation checks whether the user has confirmed a
// destructive action.
//
// Confirmation flow:
//  1. If confirmFlag is true (--confirm), return true immediately
//  2. If stdin is not a TTY, return error (cannot prompt)
//  3. Otherwise, show interactive prompt and wait for user input
func RequireConfirmation(confirmFlag bool, action string) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --confirm flag")
	}

	fmt.Println()
	fmt.Println(WarningStyle.Render("WARNING: Destructive Action"))
	fmt.Println()
	answer, err := ReadLine(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	if err != nil {
		return false, err
	}

	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// ShowCancellationMessage displays a standard cancellation message.
func ShowCancellationMessage() {
	fmt.Println()
	fmt.Println(DimStyle.Render("Cancelled."))
	fmt.Println()
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
