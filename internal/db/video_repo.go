package db

import (
	"context"

	"gorm.io/gorm"
)

// VideoRepository mirrors RuleRepository for game videos.
type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(database *gorm.DB) *VideoRepository {
	return &VideoRepository{db: database}
}

func (r *VideoRepository) Create(ctx context.Context, v *Video) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VideoRepository) GetByID(ctx context.Context, id uint64) (*Video, error) {
	var v Video
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VideoRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Video{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *VideoRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Video{}, id).Error
}

func (r *VideoRepository) ListByGame(ctx context.Context, gameID uint64) ([]Video, error) {
	var videos []Video
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&videos).Error
	return videos, err
}

func (r *VideoRepository) GameExists(ctx context.Context, gameID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Game{}).
		Where("id = ?", gameID).
		Count(&count).Error
	return count > 0, err
}
