package history

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	svcErr "github.com/meeplevault/catalog/internal/errors"
)

const defaultListLimit = 10

// Store provides append and filtered read access to the change log.
type Store struct {
	db *gorm.DB
}

func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// Append writes one history entry. Concurrent appends for the same entity
// each get their own row, so writers never overwrite each other.
func (s *Store) Append(ctx context.Context, entityType string, entityID uint64, action Action, updatedBy uint64, changes Changes) error {
	if _, err := ParseAction(string(action)); err != nil {
		return svcErr.InvalidArgument(err.Error())
	}

	var raw datatypes.JSON
	if len(changes) > 0 {
		b, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		raw = datatypes.JSON(b)
	}

	entry := Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UpdatedBy:  updatedBy,
		Changes:    raw,
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// ListFilter narrows a history read. Action and UpdatedBy are optional
// equality filters; Limit defaults to 10.
type ListFilter struct {
	Action    string
	UpdatedBy uint64
	Limit     int
	Offset    int
}

// List returns entries for one entity, oldest first.
// An unknown action filter is rejected before any query runs.
func (s *Store) List(ctx context.Context, entityType string, entityID uint64, f ListFilter) ([]Entry, error) {
	query := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if f.Action != "" {
		action, err := ParseAction(f.Action)
		if err != nil {
			return nil, svcErr.InvalidArgument("action must be one of create, update, delete, mapping")
		}
		query = query.Where("action = ?", action)
	}
	if f.UpdatedBy != 0 {
		query = query.Where("updated_by = ?", f.UpdatedBy)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var entries []Entry
	err := query.
		Order("id ASC").
		Limit(limit).
		Offset(f.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return entries, nil
}

// Purge removes every entry for an entity. The only way history is ever
// deleted.
func (s *Store) Purge(ctx context.Context, entityType string, entityID uint64) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Delete(&Entry{})
	if res.Error != nil {
		return 0, svcErr.Map(res.Error)
	}
	return res.RowsAffected, nil
}

// DecodeChanges unpacks the stored JSON diff of an entry.
func (e *Entry) DecodeChanges() (Changes, error) {
	if len(e.Changes) == 0 {
		return nil, nil
	}
	var c Changes
	if err := json.Unmarshal(e.Changes, &c); err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}
	return c, nil
}
