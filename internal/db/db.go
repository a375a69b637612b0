package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/meeplevault/catalog/internal/config"
	"github.com/meeplevault/catalog/internal/history"
)

// Models lists every table the catalog owns, in migration order.
func Models() []any {
	return []any{
		&User{}, &Game{}, &Category{}, &Mechanic{},
		&Rule{}, &Video{}, &Image{},
		&CategoryLike{}, &MechanicLike{},
		&GameCategory{}, &GameMechanic{},
		&history.Entry{},
	}
}

// NewDB initializes the database connection using DSN from config.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
