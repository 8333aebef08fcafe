// Package revocation tracks session tokens that must be treated as invalid
// before their natural expiry. Records live in the TTL key-value store and
// remove themselves once the retention window elapses; nothing here scans or
// cleans up.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goblog/internal/server/cache"
)

const keyPrefix = "revoked:"

// Store is an append-only record of revoked tokens.
type Store struct {
	cache     cache.Cache
	retention time.Duration
}

// NewStore wires the store to its TTL backend. retention must be at least
// maxTokenValidity: a revocation record that self-expires while its token is
// still inside the original TTL would let the token become valid again.
func NewStore(c cache.Cache, retention, maxTokenValidity time.Duration) (*Store, error) {
	if retention < maxTokenValidity {
		return nil, fmt.Errorf("revocation retention %v is shorter than the maximum token validity %v",
			retention, maxTokenValidity)
	}
	return &Store{cache: c, retention: retention}, nil
}

// Revoke records token as revoked as of now. Revoking an already revoked
// token is a no-op success.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.cache.Set(ctx, keyPrefix+token, "1", s.retention); err != nil {
		return fmt.Errorf("revocation store: %w", err)
	}
	return nil
}

// IsRevoked reports whether a revocation record for token exists and has not
// yet self-expired.
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, ok, err := s.cache.Get(ctx, keyPrefix+token)
	if err != nil {
		return false, fmt.Errorf("revocation store: %w", err)
	}
	return ok, nil
}
