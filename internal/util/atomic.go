// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// RELIABILITY: Atomic write with fsync prevents a half-written config or
// vault file surviving a crash.
//
// AtomicWriteFile writes data by way of a temp file in the target's
// directory, fsyncs it, then renames it over the target. After a crash
// either the old complete file or the new complete file exists, never a
// torn one. The parent directory is created with dirPerm if missing;
// the file itself ends up with filePerm.
func AtomicWriteFile(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	// The temp file must live on the same filesystem as the target for
	// the rename to be atomic.
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync data to disk: %w", err)
	}

	// Close before rename, required on some systems (Windows).
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// SECURITY: Permissions are set before the file becomes visible
	// under its final name.
	if err := os.Chmod(tempPath, filePerm); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("set file permissions: %w", err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
