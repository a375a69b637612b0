// Package mechanic orchestrates mechanic mutations and likes. Same
// SoR-first contract as the category service; mechanics are not indexed
// for listing.
package mechanic

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

const entityType = "mechanic"

type Service struct {
	appCtx *app.AppContext
	repo   *db.MechanicRepository
	authz  *authz.Checker
}

func NewService(appCtx *app.AppContext, checker *authz.Checker) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   db.NewMechanicRepository(appCtx.DB),
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

type View struct {
	db.Mechanic
	GameCount int64 `json:"game_count"`
	LikeCount int64 `json:"like_count"`
}

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

	m := db.Mechanic{
		OwnerID:     ident.UserID,
		Name:        in.Name,
		Description: in.Description,
		ImgURL:      in.ImgURL,
		Status:      status,
	}
	if err := s.repo.Create(ctx, &m); err != nil {
		return 0, svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("mechanic_id", m.ID)

	changes := history.Changes{
		"name":        {Old: nil, New: m.Name},
		"description": {Old: nil, New: m.Description},
		"img_url":     {Old: nil, New: m.ImgURL},
		"status":      {Old: nil, New: m.Status},
	}
	if err := s.appCtx.History.Append(ctx, entityType, m.ID, history.ActionCreate, ident.UserID, changes); err != nil {
		log.Error("failed to append create history", "err", err)
	}
	if err := s.appCtx.Cache.OwnerSet(ctx, entityType, m.ID, ident.UserID); err != nil {
		log.Warn("failed to cache mechanic owner", "err", err)
	}

	return m.ID, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*View, error) {
	m, err := s.loadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	gameCount, err := s.counterReadThrough(ctx, cache.CounterMechanicGames, id, s.repo.CountGames)
	if err != nil {
		return nil, err
	}
	likeCount, err := s.counterReadThrough(ctx, cache.CounterMechanicLikes, id, s.repo.CountLikes)
	if err != nil {
		return nil, err
	}

	return &View{Mechanic: *m, GameCount: gameCount, LikeCount: likeCount}, nil
}

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

	log := s.appCtx.Logger.With("mechanic_id", id)
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionUpdate, ident.UserID, changes); err != nil {
		log.Error("failed to append history", "err", err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), cur); err != nil {
		log.Warn("failed to refresh snapshot", "err", err)
	}
	return nil
}

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

	log := s.appCtx.Logger.With("mechanic_id", id)
	c := s.appCtx.Cache
	if err := c.SnapshotDel(ctx, snapshotKey(id)); err != nil {
		log.Warn("failed to drop mechanic snapshot", "err", err)
	}
	if err := c.OwnerDel(ctx, entityType, id); err != nil {
		log.Warn("failed to drop mechanic owner entry", "err", err)
	}
	if err := c.CounterDel(ctx, cache.CounterMechanicGames, id); err != nil {
		log.Warn("failed to drop game counter", "err", err)
	}
	if err := c.CounterDel(ctx, cache.CounterMechanicLikes, id); err != nil {
		log.Warn("failed to drop like counter", "err", err)
	}
	if err := c.LikeSetDel(ctx, entityType, id); err != nil {
		log.Warn("failed to drop like set", "err", err)
	}
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionDelete, ident.UserID, nil); err != nil {
		log.Error("failed to append delete history", "err", err)
	}
	return nil
}

// Like mirrors the category like contract: idempotent SoR row first, set
// and counter updates only on a fresh like.
func (s *Service) Like(ctx context.Context, userID, id uint64) error {
	inserted, err := s.repo.AddLike(ctx, userID, id)
	if err != nil {
		return svcErr.Map(err)
	}
	if !inserted {
		return nil
	}

	log := s.appCtx.Logger.With("mechanic_id", id, "user_id", userID)
	if err := s.appCtx.Cache.LikeAdd(ctx, entityType, id, userID); err != nil {
		log.Warn("failed to add like set member", "err", err)
	}
	if _, err := s.appCtx.Cache.CounterIncr(ctx, cache.CounterMechanicLikes, id); err != nil {
		log.Warn("failed to bump like counter", "err", err)
	}
	return nil
}

func (s *Service) Unlike(ctx context.Context, userID, id uint64) error {
	removed, err := s.repo.RemoveLike(ctx, userID, id)
	if err != nil {
		return svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("mechanic_id", id, "user_id", userID)
	if err := s.appCtx.Cache.LikeRemove(ctx, entityType, id, userID); err != nil {
		log.Warn("failed to remove like set member", "err", err)
	}
	if removed {
		if _, err := s.appCtx.Cache.CounterDecrFloor(ctx, cache.CounterMechanicLikes, id); err != nil {
			log.Warn("failed to decrement like counter", "err", err)
		}
	}
	return nil
}

func (s *Service) LikeCount(ctx context.Context, id uint64) (int64, error) {
	return s.counterReadThrough(ctx, cache.CounterMechanicLikes, id, s.repo.CountLikes)
}

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

func (s *Service) History(ctx context.Context, id uint64, f history.ListFilter) ([]history.Entry, error) {
	return s.appCtx.History.List(ctx, entityType, id, f)
}

// --- internals ---

func snapshotKey(id uint64) string {
	return fmt.Sprintf("mechanic:%d", id)
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
		return svcErr.Forbidden("not the mechanic owner")
	}
	return nil
}

func (s *Service) loadSnapshot(ctx context.Context, id uint64) (*db.Mechanic, error) {
	var m db.Mechanic
	found, err := s.appCtx.Cache.SnapshotGet(ctx, snapshotKey(id), &m)
	if err != nil {
		s.appCtx.Logger.Warn("snapshot cache unavailable", "mechanic_id", id, "err", err)
	} else if found {
		return &m, nil
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), fresh); err != nil {
		s.appCtx.Logger.Warn("failed to populate snapshot", "mechanic_id", id, "err", err)
	}
	return fresh, nil
}

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
