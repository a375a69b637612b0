package cache

import (
	"context"
	"crypto/sha256"
	"math/big"
	"strings"
)

// Registration existence bitmaps answer "is this email/username taken"
// in O(1) without a database round trip.
//
// Scheme: sha256 of the lowercased identifier, reduced modulo a fixed
// bitmap size. There is no collision resolution: two identifiers hashing
// to the same bucket make the probe report the second one as taken (a
// false positive). A set bit always corresponds to at least one stored
// identifier, so false negatives cannot happen; the unique indexes on the
// users table remain the final arbiter at insert time.
const (
	keyEmailBitmap    = "email_bitmap"
	keyUsernameBitmap = "username_bitmap"

	registrationBitmapSize = 10_000_000
)

var bitmapMod = big.NewInt(registrationBitmapSize)

func registrationBucket(identifier string) int64 {
	sum := sha256.Sum256([]byte(strings.ToLower(identifier)))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, bitmapMod).Int64()
}

func (c *Cache) EmailRegistered(ctx context.Context, email string) (bool, error) {
	bit, err := c.Client.GetBit(ctx, keyEmailBitmap, registrationBucket(email)).Result()
	return bit == 1, err
}

func (c *Cache) MarkEmailRegistered(ctx context.Context, email string) error {
	return c.Client.SetBit(ctx, keyEmailBitmap, registrationBucket(email), 1).Err()
}

func (c *Cache) UsernameRegistered(ctx context.Context, username string) (bool, error) {
	bit, err := c.Client.GetBit(ctx, keyUsernameBitmap, registrationBucket(username)).Result()
	return bit == 1, err
}

func (c *Cache) MarkUsernameRegistered(ctx context.Context, username string) error {
	return c.Client.SetBit(ctx, keyUsernameBitmap, registrationBucket(username), 1).Err()
}
