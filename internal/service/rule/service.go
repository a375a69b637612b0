// Package rule manages rule documents attached to games. Rules follow
// the usual SoR-first write contract but carry no counters or likes;
// the cache holds the per-rule snapshot and the per-game rule list.
package rule

import (
	"context"
	"fmt"

	"github.com/meeplevault/catalog/internal/app"
	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/db"
	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/history"
)

const entityType = "rule"

type Service struct {
	appCtx *app.AppContext
	repo   *db.RuleRepository
	authz  *authz.Checker
}

func NewService(appCtx *app.AppContext, checker *authz.Checker) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   db.NewRuleRepository(appCtx.DB),
		authz:  checker,
	}
}

type CreateInput struct {
	Title   string
	Content string
}

type UpdateInput struct {
	Title   *string
	Content *string
}

func (s *Service) Create(ctx context.Context, ident *authz.Identity, gameID uint64, in CreateInput) (uint64, error) {
	if ident == nil {
		return 0, svcErr.ErrUnauthorized
	}
	if in.Title == "" {
		return 0, svcErr.InvalidArgument("title is required")
	}

	exists, err := s.repo.GameExists(ctx, gameID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if !exists {
		return 0, svcErr.NotFound("game not found")
	}

	status := db.StatusPending
	if ident.IsAdmin() {
		status = db.StatusPublic
	}

	r := db.Rule{
		GameID:  gameID,
		OwnerID: ident.UserID,
		Title:   in.Title,
		Content: in.Content,
		Status:  status,
	}
	if err := s.repo.Create(ctx, &r); err != nil {
		return 0, svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("rule_id", r.ID, "game_id", gameID)

	changes := history.Changes{
		"title":   {Old: nil, New: r.Title},
		"content": {Old: nil, New: r.Content},
		"status":  {Old: nil, New: r.Status},
	}
	if err := s.appCtx.History.Append(ctx, entityType, r.ID, history.ActionCreate, ident.UserID, changes); err != nil {
		log.Error("failed to append create history", "err", err)
	}
	if err := s.appCtx.Cache.OwnerSet(ctx, entityType, r.ID, ident.UserID); err != nil {
		log.Warn("failed to cache rule owner", "err", err)
	}
	if err := s.appCtx.Cache.SnapshotDel(ctx, listKey(gameID)); err != nil {
		log.Warn("failed to invalidate rule list", "err", err)
	}

	return r.ID, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*db.Rule, error) {
	return s.loadSnapshot(ctx, id)
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
	if in.Title != nil && *in.Title != cur.Title {
		fields["title"] = *in.Title
		changes["title"] = history.FieldChange{Old: cur.Title, New: *in.Title}
		cur.Title = *in.Title
	}
	if in.Content != nil && *in.Content != cur.Content {
		fields["content"] = *in.Content
		changes["content"] = history.FieldChange{Old: cur.Content, New: *in.Content}
		cur.Content = *in.Content
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("rule_id", id)
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionUpdate, ident.UserID, changes); err != nil {
		log.Error("failed to append history", "err", err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), cur); err != nil {
		log.Warn("failed to refresh snapshot", "err", err)
	}
	if err := s.appCtx.Cache.SnapshotDel(ctx, listKey(cur.GameID)); err != nil {
		log.Warn("failed to invalidate rule list", "err", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, ident *authz.Identity, id uint64) error {
	if err := s.requireModify(ctx, ident, id); err != nil {
		return err
	}
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return svcErr.Map(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return svcErr.Map(err)
	}

	log := s.appCtx.Logger.With("rule_id", id)
	c := s.appCtx.Cache
	if err := c.SnapshotDel(ctx, snapshotKey(id)); err != nil {
		log.Warn("failed to drop rule snapshot", "err", err)
	}
	if err := c.SnapshotDel(ctx, listKey(cur.GameID)); err != nil {
		log.Warn("failed to invalidate rule list", "err", err)
	}
	if err := c.OwnerDel(ctx, entityType, id); err != nil {
		log.Warn("failed to drop rule owner entry", "err", err)
	}
	if err := s.appCtx.History.Append(ctx, entityType, id, history.ActionDelete, ident.UserID, nil); err != nil {
		log.Error("failed to append delete history", "err", err)
	}
	return nil
}

// ListByGame serves the per-game rule list through the snapshot cache.
func (s *Service) ListByGame(ctx context.Context, gameID uint64) ([]db.Rule, error) {
	var rules []db.Rule
	found, err := s.appCtx.Cache.SnapshotGet(ctx, listKey(gameID), &rules)
	if err != nil {
		s.appCtx.Logger.Warn("rule list cache unavailable", "game_id", gameID, "err", err)
	} else if found {
		return rules, nil
	}

	fresh, err := s.repo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, listKey(gameID), fresh); err != nil {
		s.appCtx.Logger.Warn("failed to populate rule list", "game_id", gameID, "err", err)
	}
	return fresh, nil
}

func (s *Service) History(ctx context.Context, id uint64, f history.ListFilter) ([]history.Entry, error) {
	return s.appCtx.History.List(ctx, entityType, id, f)
}

// --- internals ---

func snapshotKey(id uint64) string {
	return fmt.Sprintf("rule:%d", id)
}

func listKey(gameID uint64) string {
	return fmt.Sprintf("game:%d:rules", gameID)
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
		return svcErr.Forbidden("not the rule owner")
	}
	return nil
}

func (s *Service) loadSnapshot(ctx context.Context, id uint64) (*db.Rule, error) {
	var r db.Rule
	found, err := s.appCtx.Cache.SnapshotGet(ctx, snapshotKey(id), &r)
	if err != nil {
		s.appCtx.Logger.Warn("snapshot cache unavailable", "rule_id", id, "err", err)
	} else if found {
		return &r, nil
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Cache.SnapshotSet(ctx, snapshotKey(id), fresh); err != nil {
		s.appCtx.Logger.Warn("failed to populate snapshot", "rule_id", id, "err", err)
	}
	return fresh, nil
}
