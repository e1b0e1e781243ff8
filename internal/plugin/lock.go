// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package plugin

import (
	"path/filepath"
	"sync"
)

var (
	rootLocks   = make(map[string]*sync.Mutex)
	rootLocksMu sync.Mutex
)

// LockRoot blocks until the caller holds the writer lock of an install root
// and returns the function that releases it. Installer and converter writes
// against the same root never interleave. The lock is not reentrant.
func LockRoot(root string) (unlock func()) {
	key := filepath.Clean(root)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	rootLocksMu.Lock()
	mu, ok := rootLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		rootLocks[key] = mu
	}
	rootLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
