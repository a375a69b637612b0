package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/history"
	"github.com/meeplevault/catalog/internal/search"
)

// AppContext holds shared store handles (DB, cache, search index, history
// log) plus the logger. Constructed once in the process entry point and
// injected into the services; nothing here is ambient global state.
type AppContext struct {
	DB      *gorm.DB
	Cache   *cache.Cache
	Search  *search.CategoryIndex
	History *history.Store
	Logger  *slog.Logger
}

// New creates a new AppContext
func New(db *gorm.DB, c *cache.Cache, idx *search.CategoryIndex, hist *history.Store, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:      db,
		Cache:   c,
		Search:  idx,
		History: hist,
		Logger:  logger,
	}
}
