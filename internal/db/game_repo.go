package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository provides data access for games and their category and
// mechanic mappings.
type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(database *gorm.DB) *GameRepository {
	return &GameRepository{db: database}
}

func (r *GameRepository) Create(ctx context.Context, g *Game) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GameRepository) GetByID(ctx context.Context, id uint64) (*Game, error) {
	var g Game
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GameRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Game{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *GameRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Game{}, id).Error
}

// AddCategory maps the game into a category. Duplicate mappings collapse
// into the existing row; the bool reports whether a row was inserted.
func (r *GameRepository) AddCategory(ctx context.Context, gameID, categoryID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&GameCategory{GameID: gameID, CategoryID: categoryID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GameRepository) RemoveCategory(ctx context.Context, gameID, categoryID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("game_id = ? AND category_id = ?", gameID, categoryID).
		Delete(&GameCategory{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CategoriesOf returns the categories a game is mapped into.
func (r *GameRepository) CategoriesOf(ctx context.Context, gameID uint64) ([]Category, error) {
	var categories []Category
	err := r.db.WithContext(ctx).
		Table("categories c").
		Joins("JOIN game_categories gc ON gc.category_id = c.id").
		Where("gc.game_id = ?", gameID).
		Order("c.id ASC").
		Find(&categories).Error
	return categories, err
}

func (r *GameRepository) AddMechanic(ctx context.Context, gameID, mechanicID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&GameMechanic{GameID: gameID, MechanicID: mechanicID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GameRepository) RemoveMechanic(ctx context.Context, gameID, mechanicID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("game_id = ? AND mechanic_id = ?", gameID, mechanicID).
		Delete(&GameMechanic{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GameRepository) MechanicsOf(ctx context.Context, gameID uint64) ([]Mechanic, error) {
	var mechanics []Mechanic
	err := r.db.WithContext(ctx).
		Table("mechanics m").
		Joins("JOIN game_mechanics gm ON gm.mechanic_id = m.id").
		Where("gm.game_id = ?", gameID).
		Order("m.id ASC").
		Find(&mechanics).Error
	return mechanics, err
}
