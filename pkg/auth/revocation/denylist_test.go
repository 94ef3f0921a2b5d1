package revocation

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	entries map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]time.Duration)}
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.entries[key] = ttl
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.entries[key]
	return ok, nil
}

func (f *fakeStore) DenylistKey(jti string) string {
	return "vavip:denylist:" + jti
}

func TestRevokeUsesRemainingLifetime(t *testing.T) {
	store := newFakeStore()
	denylist, err := NewDenylist(store)
	if err != nil {
		t.Fatalf("new denylist: %v", err)
	}

	now := time.Now()
	expiry := now.Add(10 * time.Minute)

	if err := denylist.Revoke(context.Background(), "jti-1", expiry, now); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ttl, ok := store.entries["vavip:denylist:jti-1"]
	if !ok {
		t.Fatal("expected denylist entry")
	}
	if ttl != 10*time.Minute {
		t.Fatalf("expected 10m TTL, got %s", ttl)
	}

	revoked, err := denylist.IsRevoked(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti to be revoked")
	}
}

func TestRevokeSkipsExpiredTokens(t *testing.T) {
	store := newFakeStore()
	denylist, _ := NewDenylist(store)

	now := time.Now()
	if err := denylist.Revoke(context.Background(), "jti-2", now.Add(-time.Minute), now); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatal("expired token should not be stored")
	}

	revoked, err := denylist.IsRevoked(context.Background(), "jti-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("jti should not be revoked")
	}
}

func TestDenylistRequiresJTI(t *testing.T) {
	denylist, _ := NewDenylist(newFakeStore())
	if err := denylist.Revoke(context.Background(), "", time.Now().Add(time.Minute), time.Now()); err == nil {
		t.Fatal("expected error for empty jti")
	}
	if _, err := denylist.IsRevoked(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty jti")
	}
}
