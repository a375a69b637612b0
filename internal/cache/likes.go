package cache

import (
	"context"
	"fmt"
)

// Like membership sets give O(1) "has user liked" checks without a trip to
// the system of record.
func likeSetKey(entityType string, id uint64) string {
	return fmt.Sprintf("%s_likes:%d", entityType, id)
}

func (c *Cache) LikeAdd(ctx context.Context, entityType string, entityID, userID uint64) error {
	return c.Client.SAdd(ctx, likeSetKey(entityType, entityID), formatID(userID)).Err()
}

func (c *Cache) LikeRemove(ctx context.Context, entityType string, entityID, userID uint64) error {
	return c.Client.SRem(ctx, likeSetKey(entityType, entityID), formatID(userID)).Err()
}

func (c *Cache) LikeIsMember(ctx context.Context, entityType string, entityID, userID uint64) (bool, error) {
	return c.Client.SIsMember(ctx, likeSetKey(entityType, entityID), formatID(userID)).Result()
}

func (c *Cache) LikeSetDel(ctx context.Context, entityType string, entityID uint64) error {
	return c.Client.Del(ctx, likeSetKey(entityType, entityID)).Err()
}
