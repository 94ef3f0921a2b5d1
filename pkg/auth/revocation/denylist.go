package revocation

import (
	"context"
	"fmt"
	"time"
)

// Store is the slice of the redis client the denylist needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	DenylistKey(jti string) string
}

// Denylist tracks revoked token ids until their natural expiry.
// Logout and refresh push jtis here; the auth middleware checks membership.
type Denylist struct {
	store Store
}

// NewDenylist wires a denylist to the provided store.
func NewDenylist(store Store) (*Denylist, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Denylist{store: store}, nil
}

// Revoke marks the jti revoked for the token's remaining lifetime. Tokens that
// already expired are skipped since parsing rejects them anyway.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time, now time.Time) error {
	if jti == "" {
		return fmt.Errorf("jti is required")
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	return d.store.Set(ctx, d.store.DenylistKey(jti), "revoked", ttl)
}

// IsRevoked reports whether the jti has been denylisted.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, fmt.Errorf("jti is required")
	}
	return d.store.Exists(ctx, d.store.DenylistKey(jti))
}
