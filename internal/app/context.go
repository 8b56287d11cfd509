package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/cache"
	"github.com/oggyb/crush-connector/internal/crush"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Engine)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Engine     *crush.Engine
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, engine *crush.Engine) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Engine:     engine,
	}
}
