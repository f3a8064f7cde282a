package redisstore

import (
	"context"
	"time"

	"github.com/komunitas-dev/go-auth-core/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

var _ sessions.RevocationStore = (*RevocationStore)(nil)

// RevocationStore keeps revoked session ids in Redis. Entries carry a TTL
// matching the remaining token lifetime, so the list never outgrows the set
// of tokens that could still be presented.
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func (rs *RevocationStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := rs.client.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "[RevocationStore.Revoke] set")
	}
	return nil
}

func (rs *RevocationStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := rs.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, errors.Wrap(err, "[RevocationStore.IsRevoked] exists")
	}
	return n > 0, nil
}
