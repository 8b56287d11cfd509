package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/crush-connector/internal/config"
)

// NewDB opens the configured database and migrates the schema.
//
// DB_DRIVER=mysql (default) uses the DSN; DB_DRIVER=sqlite uses DB_SQLITE_PATH.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DB.Path))
	case "mysql", "":
		dialector = mysql.Open(cfg.DB.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}

	level := logger.Warn
	if cfg.App.ENV == "development" {
		level = logger.Info // log SQL queries
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteDSN adds the connection options concurrent writers need: writers
// wait for the lock instead of failing with "database is locked", and
// transactions take the write lock at BEGIN so a read-then-write submission
// cannot be upgraded into a deadlock. Options already present are kept.
func SQLiteDSN(path string) string {
	var opts []string
	if !strings.Contains(path, "_busy_timeout=") {
		opts = append(opts, "_busy_timeout=5000")
	}
	if !strings.Contains(path, "_txlock=") {
		opts = append(opts, "_txlock=immediate")
	}
	if len(opts) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(opts, "&")
}

// Migrate ensures schema is in sync with models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
