package db

import (
	"context"

	"gorm.io/gorm"
)

// RuleRepository provides data access for game rules.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(database *gorm.DB) *RuleRepository {
	return &RuleRepository{db: database}
}

func (r *RuleRepository) Create(ctx context.Context, rule *Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *RuleRepository) GetByID(ctx context.Context, id uint64) (*Rule, error) {
	var rule Rule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Rule{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *RuleRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Rule{}, id).Error
}

// ListByGame returns a game's rules in id order.
func (r *RuleRepository) ListByGame(ctx context.Context, gameID uint64) ([]Rule, error) {
	var rules []Rule
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

// GameExists checks the parent row before a rule is attached to it.
func (r *RuleRepository) GameExists(ctx context.Context, gameID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Game{}).
		Where("id = ?", gameID).
		Count(&count).Error
	return count > 0, err
}
