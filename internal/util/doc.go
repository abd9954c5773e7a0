// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across vaultrun.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - MaskSecret: Replaces secret content with asterisks for display
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long site names safely for display
//	display := util.TruncateRunes(site, 50)
//
//	// Write the config atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
package util
