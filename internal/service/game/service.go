// Package game orchestrates game mutations and the game-to-category /
// game-to-mechanic mappings, with the same SoR-first, best-effort
// downstream contract as the category service.
package game

import (
	"context"
	"fmt"

	"github.com/meeplevault/catalog/internal/app"
	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/db"
	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/history"
)

const entityType = "game"

type Service struct {
	appCtx *app.AppContext
	repo   *db.GameRepository
	authz  *authz.Checker
}

func NewService(appCtx *app.AppContext, checker *authz.Checker) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   db.NewGameRepository(appCtx.DB),
		authz:  checker,
	}
}

type CreateInput struct {
	Name   string
	BGGURL string
}

type UpdateInput struct {
	Name        *string
	Description *string
	BGGURL      *string
}

// View is a game plus its mapped categories and mechanics.
type View struct {
	db.Game
	Categories []db.Category `json:"categories"`
	Mechanics  []db.Mechanic `json:"mechanics"`
}

// Create inserts a game, caches its ownership entry and appends the
// create history entry. Only the SoR insert can fail the operation.
func (s *Service) Create(ctx context.Context, ident *authz.Identity, in CreateInput) (uint64, error) {
	if ident == nil {
		return 0, svcErr.ErrUnauthorized
	}
	if in.Name == "" {
		return 0, svcErr.InvalidArgument("name is required")
	}

	status := db.StatusPending
	if ident.IsAdmin() {
		status = db.StatusPublic
	}

	g := db.Game{
		OwnerID: ident.UserID,
		Name:    in.Name,
		BGGURL:  in.BGGURL,
		Status:  status,
	}
	if err := s.repo.Create(ctx, &g); err != nil {
		return 0, svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("game_id", g.ID)

	if err := s.appCtx.Cache.OwnerSet(ctx, entityType, g.ID, ident.UserID); err != nil {
		log.Warn("failed to cache game owner", "err", err)
	}

	changes := history.Changes{
		"name":    {Old: nil, New: g.Name},
		"bgg_url": {Old: nil, New: g.BGGURL},
		"status":  {Old: nil, New: g.Status},
	}
	if err := s.appCtx.History.Append(ctx, entityType, g.ID, history.ActionCreate, ident.UserID, changes); err != nil {
		log.Error("failed to append create history", "err", err)
	}

	return g.ID, nil
}

// Get returns the game with its category and mechanic lists, all read
// through their cache snapshots.
func (s *Service) Get(ctx context.Context, id uint64) (*View, error) {
	g, err := s.loadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	categories, err := s.Categories(ctx, id)
	if err != nil {
		return nil, err
	}
	mechanics, err := s.Mechanics(ctx, id)
	if err != nil {
		return nil, err
	}

	return &View{Game: *g, Categories: categories, Mechanics: mechanics}, nil
}

// Update diffs the provided fields against the current snapshot and
// writes only what changed; an empty diff is a no-op with no history.
func (s *Service) Update(ctx context.Context, ident *authz.Identity, id uint64, in UpdateInput) error {
	if err := s.requireModify(ctx, ident, id); err != nil {
		return err
	}

	cur, err := s.loadSnapshot(ctx, id)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	changes := history.Changes{}
	if in.Name != nil && *in.Name != cur.Name {
		fields["name"] = *in.Name
		changes["name"] = history.FieldChange{Old: cur.Name, New: *in.Name}
		cur.Name = *in.Name
	}
	if in.Description != nil && *in.Description != cur.Description {
		fields["description"] = *in.Description
		changes["description"] = history.FieldChange{Old: cur.Description, New: *in.Description}
		cur.Description = *in.Description
	}
	if in.BGGURL != nil && *in.BGGURL != cur.BGGURL {
		fields["bgg_url"] = *in.BGGURL
		changes["bgg_url"] = history.FieldChange{Old: cur.BGGURL, New: *in.BGGURL}
		cur.BGGURL = *in.BGGURL
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("game_id", id)
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionUpdate, ident.UserID, changes); err != nil {
		log.Error("failed to append history", "err", err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), cur); err != nil {
		log.Warn("failed to refresh snapshot", "err", err)
	}
	return nil
}

// Delete removes the game, its cached snapshot/mappings and ownership
// entry, then appends the delete history entry.
func (s *Service) Delete(ctx context.Context, ident *authz.Identity, id uint64) error {
	if err := s.requireModify(ctx, ident, id); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return svcErr.Map(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("game_id", id)
	c := s.appCtx.Cache
	if err := c.SnapshotDel(ctx, snapshotKey(id), categoriesKey(id), mechanicsKey(id)); err != nil {
		log.Warn("failed to drop game snapshots", "err", err)
	}
	if err := c.OwnerDel(ctx, entityType, id); err != nil {
		log.Warn("failed to drop game owner entry", "err", err)
	}
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionDelete, ident.UserID, nil); err != nil {
		log.Error("failed to append delete history", "err", err)
	}
	return nil
}

// AddCategory maps the game into a category.
//
// Behavior:
//   - SoR mapping row first; a duplicate mapping is a success no-op.
//   - On a fresh mapping the category's membership counter is bumped, the
//     game's cached category list is invalidated and a mapping history
//     entry is appended, all best-effort.
func (s *Service) AddCategory(ctx context.Context, ident *authz.Identity, gameID, categoryID uint64) error {
	if err := s.requireModify(ctx, ident, gameID); err != nil {
		return err
	}

	inserted, err := s.repo.AddCategory(ctx, gameID, categoryID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !inserted {
		return nil
	}

	s.afterMapping(ctx, ident.UserID, gameID, cache.CounterCategoryGames, categoryID, categoriesKey(gameID),
		history.Changes{"category_id": {Old: nil, New: categoryID}}, true)
	return nil
}

// RemoveCategory unmaps the game from a category; the membership counter
// is decremented with a floor at zero.
func (s *Service) RemoveCategory(ctx context.Context, ident *authz.Identity, gameID, categoryID uint64) error {
	if err := s.requireModify(ctx, ident, gameID); err != nil {
		return err
	}

	removed, err := s.repo.RemoveCategory(ctx, gameID, categoryID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !removed {
		return nil
	}

	s.afterMapping(ctx, ident.UserID, gameID, cache.CounterCategoryGames, categoryID, categoriesKey(gameID),
		history.Changes{"category_id": {Old: categoryID, New: nil}}, false)
	return nil
}

func (s *Service) AddMechanic(ctx context.Context, ident *authz.Identity, gameID, mechanicID uint64) error {
	if err := s.requireModify(ctx, ident, gameID); err != nil {
		return err
	}

	inserted, err := s.repo.AddMechanic(ctx, gameID, mechanicID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !inserted {
		return nil
	}

	s.afterMapping(ctx, ident.UserID, gameID, cache.CounterMechanicGames, mechanicID, mechanicsKey(gameID),
		history.Changes{"mechanic_id": {Old: nil, New: mechanicID}}, true)
	return nil
}

func (s *Service) RemoveMechanic(ctx context.Context, ident *authz.Identity, gameID, mechanicID uint64) error {
	if err := s.requireModify(ctx, ident, gameID); err != nil {
		return err
	}

	removed, err := s.repo.RemoveMechanic(ctx, gameID, mechanicID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !removed {
		return nil
	}

	s.afterMapping(ctx, ident.UserID, gameID, cache.CounterMechanicGames, mechanicID, mechanicsKey(gameID),
		history.Changes{"mechanic_id": {Old: mechanicID, New: nil}}, false)
	return nil
}

// Categories returns the game's category list through its cache snapshot
// (24h TTL, invalidated by mapping mutations).
func (s *Service) Categories(ctx context.Context, gameID uint64) ([]db.Category, error) {
	var categories []db.Category
	found, err := s.appCtx.Cache.SnapshotGet(ctx, categoriesKey(gameID), &categories)
	if err != nil {
		s.appCtx.Logger.Warn("category list cache unavailable", "game_id", gameID, "err", err)
	} else if found {
		return categories, nil
	}

	categories, err = s.repo.CategoriesOf(ctx, gameID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, categoriesKey(gameID), categories); err != nil {
		s.appCtx.Logger.Warn("failed to populate category list", "game_id", gameID, "err", err)
	}
	return categories, nil
}

func (s *Service) Mechanics(ctx context.Context, gameID uint64) ([]db.Mechanic, error) {
	var mechanics []db.Mechanic
	found, err := s.appCtx.Cache.SnapshotGet(ctx, mechanicsKey(gameID), &mechanics)
	if err != nil {
		s.appCtx.Logger.Warn("mechanic list cache unavailable", "game_id", gameID, "err", err)
	} else if found {
		return mechanics, nil
	}

	mechanics, err = s.repo.MechanicsOf(ctx, gameID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, mechanicsKey(gameID), mechanics); err != nil {
		s.appCtx.Logger.Warn("failed to populate mechanic list", "game_id", gameID, "err", err)
	}
	return mechanics, nil
}

// History lists the game's change log, mapping entries included.
func (s *Service) History(ctx context.Context, id uint64, f history.ListFilter) ([]history.Entry, error) {
	return s.appCtx.History.List(ctx, entityType, id, f)
}

// --- internals ---

func snapshotKey(id uint64) string   { return fmt.Sprintf("game:%d", id) }
func categoriesKey(id uint64) string { return fmt.Sprintf("game:%d:categories", id) }
func mechanicsKey(id uint64) string  { return fmt.Sprintf("game:%d:mechanics", id) }

func (s *Service) requireModify(ctx context.Context, ident *authz.Identity, id uint64) error {
	if ident == nil {
		return svcErr.ErrUnauthorized
	}
	ok, err := s.authz.CanModify(ctx, ident, entityType, id)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.Forbidden("not the game owner")
	}
	return nil
}

func (s *Service) loadSnapshot(ctx context.Context, id uint64) (*db.Game, error) {
	var g db.Game
	found, err := s.appCtx.Cache.SnapshotGet(ctx, snapshotKey(id), &g)
	if err != nil {
		s.appCtx.Logger.Warn("snapshot cache unavailable", "game_id", id, "err", err)
	} else if found {
		return &g, nil
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), fresh); err != nil {
		s.appCtx.Logger.Warn("failed to populate snapshot", "game_id", id, "err", err)
	}
	return fresh, nil
}

// afterMapping applies the non-fatal steps shared by the four mapping
// mutations: membership counter, list snapshot invalidation, mapping
// history entry.
func (s *Service) afterMapping(ctx context.Context, updatedBy, gameID uint64, counter string, counterID uint64, listKey string, changes history.Changes, added bool) {
	log := s.appCtx.Logger.With("game_id", gameID)
	c := s.appCtx.Cache

	if added {
		if _, err := c.CounterIncr(ctx, counter, counterID); err != nil {
			log.Warn("failed to bump membership counter", "counter", counter, "err", err)
		}
	} else {
		if _, err := c.CounterDecrFloor(ctx, counter, counterID); err != nil {
			log.Warn("failed to decrement membership counter", "counter", counter, "err", err)
		}
	}
	if err := c.SnapshotDel(ctx, listKey); err != nil {
		log.Warn("failed to invalidate mapping snapshot", "err", err)
	}
	if err := s.appCtx.History.Append(ctx, entityType, gameID, history.ActionMapping, updatedBy, changes); err != nil {
		log.Error("failed to append mapping history", "err", err)
	}
}
