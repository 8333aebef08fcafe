// Package cache provides the expiry-capable key-value collaborator used for
// cached post payloads and token revocation records.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store. Entries disappear on their own once their
// time-to-live elapses; there is no explicit delete in the read/write paths.
type Cache interface {
	// Get returns the value stored under key. ok is false on a miss; err is
	// reserved for infrastructure failures.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key for the given time-to-live, replacing any
	// previous entry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
