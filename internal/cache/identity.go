package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// IdentityCachePrefix is the key prefix for external id lookups.
	IdentityCachePrefix = "identity:"

	// DefaultIdentityTTL bounds how long a mapping lives without a refresh.
	DefaultIdentityTTL = 24 * time.Hour
)

// IdentityCache maps an external identity to the internal user id. The mapping
// never changes once created, so entries only expire to bound memory.
type IdentityCache interface {
	// Get returns (id, found, error). found=false means the caller must resolve
	// through the database.
	Get(ctx context.Context, externalID string) (uuid.UUID, bool, error)
	Set(ctx context.Context, externalID string, userID uuid.UUID) error
	Delete(ctx context.Context, externalID string) error
}

type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	if ttl <= 0 {
		ttl = DefaultIdentityTTL
	}
	return &RedisIdentityCache{client: client, ttl: ttl}
}

func identityKey(externalID string) string {
	return IdentityCachePrefix + externalID
}

func (c *RedisIdentityCache) Get(ctx context.Context, externalID string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, identityKey(externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("get identity: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		// Corrupt entry; drop it so the next lookup repopulates.
		c.client.Del(ctx, identityKey(externalID))
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, externalID string, userID uuid.UUID) error {
	if err := c.client.Set(ctx, identityKey(externalID), userID.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	return nil
}

func (c *RedisIdentityCache) Delete(ctx context.Context, externalID string) error {
	if err := c.client.Del(ctx, identityKey(externalID)).Err(); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}
