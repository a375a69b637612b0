// Package category orchestrates category mutations across the system of
// record, the cache store, the search index and the history log.
//
// Ordering contract: the SoR write always lands first and is the only
// fatal step. Cache, index and history writes after a successful SoR
// write are awaited but non-fatal; their failures are logged and the
// mutation still reports success.
package category

import (
	"context"
	"fmt"

	"github.com/meeplevault/catalog/internal/app"
	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/db"
	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/history"
	"github.com/meeplevault/catalog/internal/search"
)

const entityType = "category"

type Service struct {
	appCtx *app.AppContext
	repo   *db.CategoryRepository
	authz  *authz.Checker
}

// NewService creates the category service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, checker *authz.Checker) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   db.NewCategoryRepository(appCtx.DB),
		authz:  checker,
	}
}

type CreateInput struct {
	Name        string
	Description string
	ImgURL      string
}

type UpdateInput struct {
	Name        *string
	Description *string
	ImgURL      *string
}

// View is a category enriched with its cached counters.
type View struct {
	db.Category
	GameCount int64 `json:"game_count"`
	LikeCount int64 `json:"like_count"`
}

// ListFilter narrows a listing query, served from the search index.
type ListFilter = search.Filter

// ListItem is one listing row: index stored fields plus batch counters.
type ListItem struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	OwnerID     uint64 `json:"owner_id"`
	GameCount   int64  `json:"game_count"`
	LikeCount   int64  `json:"like_count"`
}

// Create inserts a new category.
//
// Behavior:
//   - Requires an authenticated identity; admins publish immediately,
//     everyone else starts pending.
//   - SoR insert assigns the id and is the only fatal step.
//   - Index document, create history entry and ownership cache entry are
//     written afterwards, best-effort.
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

	cat := db.Category{
		OwnerID:     ident.UserID,
		Name:        in.Name,
		Description: in.Description,
		ImgURL:      in.ImgURL,
		Status:      status,
	}
	if err := s.repo.Create(ctx, &cat); err != nil {
		return 0, svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("category_id", cat.ID)

	if err := s.appCtx.Search.Index(cat.ID, docOf(&cat)); err != nil {
		log.Error("failed to index category", "err", err)
	}

	changes := history.Changes{
		"name":        {Old: nil, New: cat.Name},
		"description": {Old: nil, New: cat.Description},
		"img_url":     {Old: nil, New: cat.ImgURL},
		"status":      {Old: nil, New: cat.Status},
	}
	if err := s.appCtx.History.Append(ctx, entityType, cat.ID, history.ActionCreate, ident.UserID, changes); err != nil {
		log.Error("failed to append create history", "err", err)
	}

	if err := s.appCtx.Cache.OwnerSet(ctx, entityType, cat.ID, ident.UserID); err != nil {
		log.Warn("failed to cache category owner", "err", err)
	}

	return cat.ID, nil
}

// Get returns a category with its game and like counts.
// The entity snapshot and both counters are read through the cache.
func (s *Service) Get(ctx context.Context, id uint64) (*View, error) {
	cat, err := s.loadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	gameCount, err := s.gameCount(ctx, id)
	if err != nil {
		return nil, err
	}
	likeCount, err := s.likeCount(ctx, id)
	if err != nil {
		return nil, err
	}

	return &View{Category: *cat, GameCount: gameCount, LikeCount: likeCount}, nil
}

// Update writes only the provided fields that actually changed.
//
// Behavior:
//   - Diff against the current cached-or-SoR snapshot.
//   - An empty diff writes nothing anywhere, including history.
//   - Changed fields go to SoR first; then the index document, the update
//     history entry (diff only) and the refreshed snapshot, best-effort.
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
	if in.ImgURL != nil && *in.ImgURL != cur.ImgURL {
		fields["img_url"] = *in.ImgURL
		changes["img_url"] = history.FieldChange{Old: cur.ImgURL, New: *in.ImgURL}
		cur.ImgURL = *in.ImgURL
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return svcErr.Map(err)
	}

	s.afterWrite(ctx, ident.UserID, cur, history.ActionUpdate, changes)
	return nil
}

// ToggleStatus flips a category between public and hidden (pending goes
// public). The current status is read just before the flip; concurrent
// toggles race benignly and the last SoR write wins, with the cache
// refreshed to match.
func (s *Service) ToggleStatus(ctx context.Context, ident *authz.Identity, id uint64) (string, error) {
	if err := s.requireModify(ctx, ident, id); err != nil {
		return "", err
	}

	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", svcErr.Map(err)
	}

	next := db.StatusPublic
	if cur.Status == db.StatusPublic {
		next = db.StatusHide
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]any{"status": next}); err != nil {
		return "", svcErr.Map(err)
	}

	changes := history.Changes{
		"status": {Old: cur.Status, New: next},
	}
	cur.Status = next
	s.afterWrite(ctx, ident.UserID, cur, history.ActionUpdate, changes)
	return next, nil
}

// Delete removes a category everywhere.
//
// Behavior:
//   - SoR delete first, fatal.
//   - Then snapshot, ownership, counters and like set are dropped, the
//     delete history entry is appended and the index document removed,
//     all best-effort.
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

	log := s.appCtx.Logger.With("category_id", id)
	c := s.appCtx.Cache

	if err := c.SnapshotDel(ctx, snapshotKey(id)); err != nil {
		log.Warn("failed to drop category snapshot", "err", err)
	}
	if err := c.OwnerDel(ctx, entityType, id); err != nil {
		log.Warn("failed to drop category owner entry", "err", err)
	}
	if err := c.CounterDel(ctx, cache.CounterCategoryGames, id); err != nil {
		log.Warn("failed to drop game counter", "err", err)
	}
	if err := c.CounterDel(ctx, cache.CounterCategoryLikes, id); err != nil {
		log.Warn("failed to drop like counter", "err", err)
	}
	if err := c.LikeSetDel(ctx, entityType, id); err != nil {
		log.Warn("failed to drop like set", "err", err)
	}
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionDelete, ident.UserID, nil); err != nil {
		log.Error("failed to append delete history", "err", err)
	}
	if err := s.appCtx.Search.Delete(id); err != nil {
		log.Error("failed to remove category from index", "err", err)
	}

	return nil
}

// List serves a filtered listing entirely from the search index, then
// enriches each hit with batched game and like counts. A just-created
// category appears once its index write has completed.
func (s *Service) List(ctx context.Context, f ListFilter) ([]ListItem, uint64, error) {
	hits, total, err := s.appCtx.Search.Search(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	gameCounts, err := s.batchCounts(ctx, cache.CounterCategoryGames, ids, s.repo.CountGamesBatch)
	if err != nil {
		return nil, 0, err
	}
	likeCounts, err := s.batchCounts(ctx, cache.CounterCategoryLikes, ids, s.repo.CountLikesBatch)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ListItem, len(hits))
	for i, h := range hits {
		items[i] = ListItem{
			ID:          h.ID,
			Name:        h.Name,
			Description: h.Description,
			Status:      h.Status,
			OwnerID:     uint64(h.OwnerID),
			GameCount:   gameCounts[h.ID],
			LikeCount:   likeCounts[h.ID],
		}
	}
	return items, total, nil
}

// Like records a user's like.
//
// Behavior:
//   - The SoR relation row is written first; a duplicate like is a
//     success no-op and touches nothing downstream.
//   - On a fresh like the membership set and the cached counter are
//     updated best-effort.
func (s *Service) Like(ctx context.Context, userID, id uint64) error {
	inserted, err := s.repo.AddLike(ctx, userID, id)
	if err != nil {
		return svcErr.Map(err)
	}
	if !inserted {
		return nil
	}

	log := s.appCtx.Logger.With("category_id", id, "user_id", userID)
	if err := s.appCtx.Cache.LikeAdd(ctx, entityType, id, userID); err != nil {
		log.Warn("failed to add like set member", "err", err)
	}
	if _, err := s.appCtx.Cache.CounterIncr(ctx, cache.CounterCategoryLikes, id); err != nil {
		log.Warn("failed to bump like counter", "err", err)
	}
	return nil
}

// Unlike removes a user's like. The cached counter is decremented with a
// floor at zero and only when a SoR row was actually removed.
func (s *Service) Unlike(ctx context.Context, userID, id uint64) error {
	removed, err := s.repo.RemoveLike(ctx, userID, id)
	if err != nil {
		return svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("category_id", id, "user_id", userID)
	if err := s.appCtx.Cache.LikeRemove(ctx, entityType, id, userID); err != nil {
		log.Warn("failed to remove like set member", "err", err)
	}
	if removed {
		if _, err := s.appCtx.Cache.CounterDecrFloor(ctx, cache.CounterCategoryLikes, id); err != nil {
			log.Warn("failed to decrement like counter", "err", err)
		}
	}
	return nil
}

// LikeCount returns one category's like count, read through the cache.
func (s *Service) LikeCount(ctx context.Context, id uint64) (int64, error) {
	return s.likeCount(ctx, id)
}

// LikeCounts returns like counts for many categories: one batched cache
// probe, one grouped SoR query for the misses, one batched populate.
func (s *Service) LikeCounts(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	return s.batchCounts(ctx, cache.CounterCategoryLikes, ids, s.repo.CountLikesBatch)
}

// HasLiked answers the membership check from the like set, falling back
// to the system of record on a set miss (and re-populating the set).
func (s *Service) HasLiked(ctx context.Context, userID, id uint64) (bool, error) {
	member, err := s.appCtx.Cache.LikeIsMember(ctx, entityType, id, userID)
	if err != nil {
		s.appCtx.Logger.Warn("like set unavailable, falling back to db", "err", err)
	} else if member {
		return true, nil
	}

	liked, err := s.repo.HasLiked(ctx, userID, id)
	if err != nil {
		return false, svcErr.Map(err)
	}
	if liked {
		if err := s.appCtx.Cache.LikeAdd(ctx, entityType, id, userID); err != nil {
			s.appCtx.Logger.Warn("failed to re-populate like set", "err", err)
		}
	}
	return liked, nil
}

// Reindex rebuilds the search index from the system of record. Run at
// startup after seeding, or whenever the index falls out of step.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	categories, err := s.repo.All(ctx)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	for i := range categories {
		if err := s.appCtx.Search.Index(categories[i].ID, docOf(&categories[i])); err != nil {
			return i, err
		}
	}
	return len(categories), nil
}

// LikedIDs lists the categories a user has liked, straight from the
// relation table in stable id order.
func (s *Service) LikedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids, err := s.repo.LikedCategoryIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return ids, nil
}

// History lists this category's change log. Unknown action filters are
// rejected by the store before any query runs.
func (s *Service) History(ctx context.Context, id uint64, f history.ListFilter) ([]history.Entry, error) {
	return s.appCtx.History.List(ctx, entityType, id, f)
}

// --- internals ---

func snapshotKey(id uint64) string {
	return fmt.Sprintf("category:%d", id)
}

func docOf(c *db.Category) search.CategoryDoc {
	return search.CategoryDoc{
		Name:        c.Name,
		Description: c.Description,
		Status:      c.Status,
		OwnerID:     float64(c.OwnerID),
	}
}

func (s *Service) requireModify(ctx context.Context, ident *authz.Identity, id uint64) error {
	if ident == nil {
		return svcErr.ErrUnauthorized
	}
	ok, err := s.authz.CanModify(ctx, ident, entityType, id)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.Forbidden("not the category owner")
	}
	return nil
}

// loadSnapshot reads the category through the cache: hit → cached copy,
// miss → SoR load plus best-effort populate.
func (s *Service) loadSnapshot(ctx context.Context, id uint64) (*db.Category, error) {
	var cat db.Category
	found, err := s.appCtx.Cache.SnapshotGet(ctx, snapshotKey(id), &cat)
	if err != nil {
		s.appCtx.Logger.Warn("snapshot cache unavailable", "category_id", id, "err", err)
	} else if found {
		return &cat, nil
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), fresh); err != nil {
		s.appCtx.Logger.Warn("failed to populate snapshot", "category_id", id, "err", err)
	}
	return fresh, nil
}

// afterWrite applies the non-fatal post-SoR steps shared by update paths:
// index document, history entry, snapshot refresh.
func (s *Service) afterWrite(ctx context.Context, updatedBy uint64, cat *db.Category, action history.Action, changes history.Changes) {
	log := s.appCtx.Logger.With("category_id", cat.ID)

	if err := s.appCtx.Search.Update(cat.ID, docOf(cat)); err != nil {
		log.Error("failed to update category index", "err", err)
	}
	if err := s.appCtx.History.Append(ctx, entityType, cat.ID, action, updatedBy, changes); err != nil {
		log.Error("failed to append history", "err", err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(cat.ID), cat); err != nil {
		log.Warn("failed to refresh snapshot", "err", err)
	}
}

func (s *Service) gameCount(ctx context.Context, id uint64) (int64, error) {
	return s.counterReadThrough(ctx, cache.CounterCategoryGames, id, s.repo.CountGames)
}

func (s *Service) likeCount(ctx context.Context, id uint64) (int64, error) {
	return s.counterReadThrough(ctx, cache.CounterCategoryLikes, id, s.repo.CountLikes)
}

// counterReadThrough probes one counter field and recomputes it from the
// system of record on a miss. Concurrent misses may both hit the SoR; the
// values are idempotent so the last populate wins harmlessly.
func (s *Service) counterReadThrough(ctx context.Context, counter string, id uint64, fetch func(context.Context, uint64) (int64, error)) (int64, error) {
	n, found, err := s.appCtx.Cache.CounterGet(ctx, counter, id)
	if err != nil {
		s.appCtx.Logger.Warn("counter cache unavailable, falling back to db", "counter", counter, "err", err)
	} else if found {
		return n, nil
	}

	fresh, err := fetch(ctx, id)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.CounterSet(ctx, counter, id, fresh); err != nil {
		s.appCtx.Logger.Warn("failed to populate counter", "counter", counter, "err", err)
	}
	return fresh, nil
}

// batchCounts implements the batched variant: one HMGET probe, one
// grouped SoR query for the subset of misses, one pipelined populate.
// Never N+1 against either store.
func (s *Service) batchCounts(ctx context.Context, counter string, ids []uint64, fetch func(context.Context, []uint64) (map[uint64]int64, error)) (map[uint64]int64, error) {
	counts, misses, err := s.appCtx.Cache.CounterBatchGet(ctx, counter, ids)
	if err != nil {
		s.appCtx.Logger.Warn("counter cache unavailable, falling back to db", "counter", counter, "err", err)
		counts = make(map[uint64]int64, len(ids))
		misses = ids
	}
	if len(misses) == 0 {
		return counts, nil
	}

	fromDB, err := fetch(ctx, misses)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	fill := make(map[uint64]int64, len(misses))
	for _, id := range misses {
		n := fromDB[id] // absent → 0 likes/games
		counts[id] = n
		fill[id] = n
	}
	if err := s.appCtx.Cache.CounterBatchSet(ctx, counter, fill); err != nil {
		s.appCtx.Logger.Warn("failed to populate counters", "counter", counter, "err", err)
	}
	return counts, nil
}
