package cache

import (
	"context"
	"encoding/json"
	"time"
)

// SnapshotTTL bounds how stale an entity snapshot can get when no
// mutation refreshes it first.
const SnapshotTTL = 24 * time.Hour

// SnapshotSet stores a JSON-encoded entity (or entity list) under key
// with the snapshot TTL.
func (c *Cache) SnapshotSet(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, b, SnapshotTTL).Err()
}

// SnapshotGet loads a snapshot into dst, with found=false on a miss.
func (c *Cache) SnapshotGet(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		// treat a corrupt snapshot as a miss; the caller re-populates
		return false, nil
	}
	return true, nil
}

func (c *Cache) SnapshotDel(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}
