package sessions

import (
	"context"
	"sync"
	"time"
)

// RevocationStore is the server-side list that lets a revoke take effect
// before a token's natural expiry. Entries only need to outlive the token
// they block, so implementations may expire them after ttl.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// InMemoryRevocationStore keeps revoked session ids in process memory.
// Suitable for a single-instance deployment and for tests; multi-instance
// deployments use the Redis-backed store.
type InMemoryRevocationStore struct {
	entries map[string]time.Time // session id -> entry expiry
	lock    sync.RWMutex
	nowTime func() time.Time
}

func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{
		entries: make(map[string]time.Time),
		nowTime: time.Now,
	}
}

func (rs *InMemoryRevocationStore) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	rs.entries[sessionID] = rs.nowTime().Add(ttl)
	rs.compactLocked()
	return nil
}

func (rs *InMemoryRevocationStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	expiry, ok := rs.entries[sessionID]
	if !ok {
		return false, nil
	}
	return rs.nowTime().Before(expiry), nil
}

// compactLocked drops entries whose tokens have long expired anyway.
func (rs *InMemoryRevocationStore) compactLocked() {
	now := rs.nowTime()
	for id, expiry := range rs.entries {
		if now.After(expiry) {
			delete(rs.entries, id)
		}
	}
}
