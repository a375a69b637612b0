// Package authz answers "may this user modify this entity" without a
// guaranteed cache hit: admins pass immediately, everyone else is compared
// against the ownership record, read through the cache store.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"github.com/meeplevault/catalog/internal/cache"
	svcErr "github.com/meeplevault/catalog/internal/errors"
)

// Identity is the authenticated caller as supplied by the HTTP layer.
// A nil *Identity means anonymous.
type Identity struct {
	UserID uint64
	Role   string
}

func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == "admin"
}

// OwnerLookup loads an entity's owner id from the system of record.
type OwnerLookup func(ctx context.Context, entityID uint64) (uint64, error)

// Checker resolves ownership with a cache-first, SoR-fallback strategy.
type Checker struct {
	cache   *cache.Cache
	lookups map[string]OwnerLookup
	log     *slog.Logger
}

func NewChecker(c *cache.Cache, log *slog.Logger) *Checker {
	return &Checker{
		cache:   c,
		lookups: make(map[string]OwnerLookup),
		log:     log,
	}
}

// RegisterOwnerLookup wires the SoR fallback for one entity type.
func (c *Checker) RegisterOwnerLookup(entityType string, fn OwnerLookup) {
	c.lookups[entityType] = fn
}

// CanModify reports whether the identity may mutate the entity.
//
// Behavior:
//   - admin role → true with no store access at all.
//   - anonymous → false, no store access.
//   - otherwise probe the ownership cache; on a hit compare ids as strings.
//   - on a miss (or cache failure, which degrades to SoR-only) load the
//     owner from the system of record and populate the cache.
//
// A missing entity maps to NotFound; an unreachable SoR maps to a
// retryable Unavailable error.
func (c *Checker) CanModify(ctx context.Context, id *Identity, entityType string, entityID uint64) (bool, error) {
	if id == nil {
		return false, nil
	}
	if id.IsAdmin() {
		return true, nil
	}

	cached, found, err := c.cache.OwnerGet(ctx, entityType, entityID)
	if err != nil {
		c.log.Warn("ownership cache unavailable, falling back to db", "entity_type", entityType, "err", err)
	} else if found {
		return cached == strconv.FormatUint(id.UserID, 10), nil
	}

	lookup, ok := c.lookups[entityType]
	if !ok {
		return false, svcErr.InvalidArgument("unknown entity type " + entityType)
	}

	ownerID, err := lookup(ctx, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, svcErr.NotFound(entityType)
		}
		return false, svcErr.Unavailable(err)
	}

	if err := c.cache.OwnerSet(ctx, entityType, entityID, ownerID); err != nil {
		c.log.Warn("failed to populate ownership cache", "entity_type", entityType, "err", err)
	}

	return ownerID == id.UserID, nil
}
