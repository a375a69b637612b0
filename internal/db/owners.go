package db

import (
	"context"

	"gorm.io/gorm"
)

// OwnerReader loads owner ids straight from the system of record. It backs
// the access checker on ownership-cache misses, one lookup per entity type.
type OwnerReader struct {
	db *gorm.DB
}

func NewOwnerReader(database *gorm.DB) *OwnerReader {
	return &OwnerReader{db: database}
}

func (r *OwnerReader) ownerOf(ctx context.Context, model any, id uint64) (uint64, error) {
	var owner struct {
		OwnerID uint64
	}
	err := r.db.WithContext(ctx).
		Model(model).
		Select("owner_id").
		Where("id = ?", id).
		Take(&owner).Error
	if err != nil {
		return 0, err
	}
	return owner.OwnerID, nil
}

func (r *OwnerReader) Game(ctx context.Context, id uint64) (uint64, error) {
	return r.ownerOf(ctx, &Game{}, id)
}

func (r *OwnerReader) Category(ctx context.Context, id uint64) (uint64, error) {
	return r.ownerOf(ctx, &Category{}, id)
}

func (r *OwnerReader) Mechanic(ctx context.Context, id uint64) (uint64, error) {
	return r.ownerOf(ctx, &Mechanic{}, id)
}

func (r *OwnerReader) Rule(ctx context.Context, id uint64) (uint64, error) {
	return r.ownerOf(ctx, &Rule{}, id)
}

func (r *OwnerReader) Video(ctx context.Context, id uint64) (uint64, error) {
	return r.ownerOf(ctx, &Video{}, id)
}
