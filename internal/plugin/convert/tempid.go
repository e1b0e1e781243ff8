// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package convert

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// newTempID returns a lowercase ULID. Monotonic entropy keeps ids from one
// millisecond distinct and ordered.
func newTempID(now time.Time) string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(now), entropy).String())
}
