// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strings"

// UNICODE: Rune-aware truncation preserves multi-byte characters. Site
// names come from user input and may be any UTF-8.

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// MaskSecret replaces all but the last tail runes of a secret with
// asterisks. A secret at or under the tail length is fully masked so
// short values never leak outright.
func MaskSecret(s string, tail int) string {
	runes := []rune(s)
	if tail < 0 {
		tail = 0
	}
	if len(runes) <= tail {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-tail) + string(runes[len(runes)-tail:])
}

// RuneLen returns the number of runes in a string.
func RuneLen(s string) int {
	return len([]rune(s))
}
