package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MechanicRepository mirrors CategoryRepository for game mechanics.
type MechanicRepository struct {
	db *gorm.DB
}

func NewMechanicRepository(database *gorm.DB) *MechanicRepository {
	return &MechanicRepository{db: database}
}

func (r *MechanicRepository) Create(ctx context.Context, m *Mechanic) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MechanicRepository) GetByID(ctx context.Context, id uint64) (*Mechanic, error) {
	var m Mechanic
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MechanicRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Mechanic{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *MechanicRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Mechanic{}, id).Error
}

// AddLike inserts the (user, mechanic) like row; a duplicate collapses
// into the existing row and reports inserted=false.
func (r *MechanicRepository) AddLike(ctx context.Context, userID, mechanicID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&MechanicLike{UserID: userID, MechanicID: mechanicID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *MechanicRepository) RemoveLike(ctx context.Context, userID, mechanicID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND mechanic_id = ?", userID, mechanicID).
		Delete(&MechanicLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *MechanicRepository) HasLiked(ctx context.Context, userID, mechanicID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&MechanicLike{}).
		Where("user_id = ? AND mechanic_id = ?", userID, mechanicID).
		Count(&count).Error
	return count > 0, err
}

func (r *MechanicRepository) CountLikes(ctx context.Context, mechanicID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&MechanicLike{}).
		Where("mechanic_id = ?", mechanicID).
		Count(&count).Error
	return count, err
}

func (r *MechanicRepository) CountGames(ctx context.Context, mechanicID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&GameMechanic{}).
		Where("mechanic_id = ?", mechanicID).
		Count(&count).Error
	return count, err
}
