// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// keyholder.go - Holder for the one active session key.
//
// At most one account session is active per process, so the holder keeps a
// single key. Store replaces any previous key (zeroing it first), and
// Clear overwrites every byte of the material before dropping the
// reference. Clear must run on logout and on any authentication failure
// path that previously stored a key.

package security

import "sync"

// KeyHolder holds the ephemeral session key for the lifetime of an
// authenticated session. The key is never persisted.
type KeyHolder struct {
	mu  sync.Mutex
	key []byte
}

// NewKeyHolder returns an empty holder.
func NewKeyHolder() *KeyHolder {
	return &KeyHolder{}
}

// Store replaces the held key with a private copy of k.
// Any previously held key is zeroed before being dropped.
func (h *KeyHolder) Store(k []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ZeroBytes(h.key)
	h.key = make([]byte, len(k))
	copy(h.key, k)
}

// Get returns a copy of the held key, or nil if no session is active.
// Callers must zero the copy after last use.
func (h *KeyHolder) Get() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.key == nil {
		return nil
	}
	out := make([]byte, len(h.key))
	copy(out, h.key)
	return out
}

// Active reports whether a session key is currently held.
func (h *KeyHolder) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key != nil
}

// Clear zeros the held key material and drops the reference.
// Subsequent Get calls return nil.
func (h *KeyHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	ZeroBytes(h.key)
	h.key = nil
}
