package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Counter hashes, one field per entity id.
const (
	CounterCategoryGames = "category_game_count"
	CounterCategoryLikes = "category_like_count"
	CounterMechanicGames = "mechanic_game_count"
	CounterMechanicLikes = "mechanic_like_count"
)

// decrFloorScript decrements a hash counter without ever going below zero.
// An absent or non-positive field is left at zero untouched, so a stray
// decrement cannot corrupt a counter that was never populated.
var decrFloorScript = redis.NewScript(`
local c = redis.call('HGET', KEYS[1], ARGV[1])
if not c then return 0 end
if tonumber(c) <= 0 then return 0 end
return redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
`)

// CounterGet reads one counter field, with found=false on a miss.
func (c *Cache) CounterGet(ctx context.Context, counter string, id uint64) (int64, bool, error) {
	val, err := c.Client.HGet(ctx, counter, formatID(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// CounterSet overwrites one counter field, used when populating from the
// system of record.
func (c *Cache) CounterSet(ctx context.Context, counter string, id uint64, value int64) error {
	return c.Client.HSet(ctx, counter, formatID(id), value).Err()
}

// incrPresentScript increments a counter field only when it is already
// populated. An absent field stays absent and is rebuilt from the system
// of record on the next read-through, so an increment can never seed a
// counter with a value the record of truth does not back.
var incrPresentScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then return -1 end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)

// CounterIncr atomically bumps an already-populated counter field by one.
func (c *Cache) CounterIncr(ctx context.Context, counter string, id uint64) (int64, error) {
	return incrPresentScript.Run(ctx, c.Client, []string{counter}, formatID(id)).Int64()
}

// CounterDecrFloor atomically decrements a counter field, floored at zero.
func (c *Cache) CounterDecrFloor(ctx context.Context, counter string, id uint64) (int64, error) {
	return decrFloorScript.Run(ctx, c.Client, []string{counter}, formatID(id)).Int64()
}

// CounterDel drops counter fields, e.g. when the entity is deleted.
func (c *Cache) CounterDel(ctx context.Context, counter string, ids ...uint64) error {
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = formatID(id)
	}
	return c.Client.HDel(ctx, counter, fields...).Err()
}

// CounterBatchGet probes many counter fields in one HMGET. It returns the
// cached values plus the ids that missed, so the caller can fetch those
// from the system of record in a single query.
func (c *Cache) CounterBatchGet(ctx context.Context, counter string, ids []uint64) (map[uint64]int64, []uint64, error) {
	if len(ids) == 0 {
		return map[uint64]int64{}, nil, nil
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = formatID(id)
	}

	vals, err := c.Client.HMGet(ctx, counter, fields...).Result()
	if err != nil {
		return nil, nil, err
	}

	hits := make(map[uint64]int64, len(ids))
	var misses []uint64
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			misses = append(misses, ids[i])
			continue
		}
		hits[ids[i]] = n
	}
	return hits, misses, nil
}

// CounterBatchSet populates many counter fields in one pipelined round trip.
func (c *Cache) CounterBatchSet(ctx context.Context, counter string, values map[uint64]int64) error {
	if len(values) == 0 {
		return nil
	}
	pipe := c.Client.Pipeline()
	for id, n := range values {
		pipe.HSet(ctx, counter, formatID(id), n)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
