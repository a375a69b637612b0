package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository provides data access for categories, their like
// relation and their game membership counts.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new repository bound to the given DB connection.
func NewCategoryRepository(database *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: database}
}

func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint64) (*Category, error) {
	var c Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateFields writes only the provided columns. The caller is expected to
// have already diffed against the current row.
func (r *CategoryRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Category{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Category{}, id).Error
}

// AddLike inserts the (user, category) like row.
//
// Behavior:
//   - Composite PK + OnConflict DoNothing makes a duplicate like a no-op.
//   - Returns whether a new row was actually inserted, so the caller knows
//     whether to touch the cached counter.
func (r *CategoryRepository) AddLike(ctx context.Context, userID, categoryID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CategoryLike{UserID: userID, CategoryID: categoryID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveLike deletes the like row, reporting whether one existed.
func (r *CategoryRepository) RemoveLike(ctx context.Context, userID, categoryID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Delete(&CategoryLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CategoryRepository) HasLiked(ctx context.Context, userID, categoryID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CategoryLike{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count).Error
	return count > 0, err
}

func (r *CategoryRepository) CountLikes(ctx context.Context, categoryID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CategoryLike{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// CountLikesBatch returns like counts for many categories in one grouped
// query. Ids with no likes are absent from the result map.
func (r *CategoryRepository) CountLikesBatch(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	return r.countBatch(ctx, &CategoryLike{}, "category_id", ids)
}

func (r *CategoryRepository) CountGames(ctx context.Context, categoryID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&GameCategory{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// CountGamesBatch mirrors CountLikesBatch for game membership.
func (r *CategoryRepository) CountGamesBatch(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	return r.countBatch(ctx, &GameCategory{}, "category_id", ids)
}

// All returns every category, used to rebuild the search index at startup.
func (r *CategoryRepository) All(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

// LikedCategoryIDs lists the categories a user has liked.
func (r *CategoryRepository) LikedCategoryIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&CategoryLike{}).
		Where("user_id = ?", userID).
		Order("category_id ASC").
		Pluck("category_id", &ids).Error
	return ids, err
}

type groupCount struct {
	ID uint64 `gorm:"column:gid"`
	N  int64  `gorm:"column:n"`
}

func (r *CategoryRepository) countBatch(ctx context.Context, model any, column string, ids []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []groupCount
	err := r.db.WithContext(ctx).
		Model(model).
		Select(column+" AS gid, COUNT(*) AS n").
		Where(column+" IN ?", ids).
		Group(column).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ID] = row.N
	}
	return counts, nil
}
