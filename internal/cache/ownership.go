package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Ownership hashes map entity id to owner user id, one hash per entity
// type. Entries have no expiry: they are written at creation, removed at
// deletion, and lazily re-populated from the system of record on a miss.
func ownerKey(entityType string) string {
	return fmt.Sprintf("%s_owner", entityType)
}

func (c *Cache) OwnerSet(ctx context.Context, entityType string, entityID, ownerID uint64) error {
	return c.Client.HSet(ctx, ownerKey(entityType), formatID(entityID), formatID(ownerID)).Err()
}

// OwnerGet returns the cached owner as a string, with found=false on a miss.
func (c *Cache) OwnerGet(ctx context.Context, entityType string, entityID uint64) (string, bool, error) {
	val, err := c.Client.HGet(ctx, ownerKey(entityType), formatID(entityID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Cache) OwnerDel(ctx context.Context, entityType string, entityID uint64) error {
	return c.Client.HDel(ctx, ownerKey(entityType), formatID(entityID)).Err()
}
