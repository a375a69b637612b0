// Package history is the append-only per-entity change log. Entries are
// inserted once and never updated; insertion order is the read order.
package history

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Action classifies a history entry.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionMapping Action = "mapping"
)

// ParseAction normalizes and validates an action filter value.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionMapping:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// FieldChange records one field's transition. Old is nil on create.
type FieldChange struct {
	Old any `json:"oldValue"`
	New any `json:"newValue"`
}

// Changes maps field name to its transition.
type Changes map[string]FieldChange

// Entry is one immutable history record for an entity.
type Entry struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	EntityType string `gorm:"size:32;not null;index:idx_history_entity,priority:1"`
	EntityID   uint64 `gorm:"not null;index:idx_history_entity,priority:2"`
	Action     Action `gorm:"size:16;not null"`
	UpdatedBy  uint64 `gorm:"not null;index"`
	Changes    datatypes.JSON
	CreatedAt  time.Time
}

func (Entry) TableName() string { return "entity_histories" }
