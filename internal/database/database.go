package database

import (
	"database/sql"
	"fmt"
	"time"

	"go-dblog/internal/config"

	"go.uber.org/zap"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	switch cfg.DBDriver {
	case "mysql":
		return InitMySQL(cfg, logger)
	case "sqlite", "sqlite3":
		return InitSQLite(cfg, logger)
	case "oracle", "godror":
		return InitOracle(cfg, logger)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

func configurePool(db *sql.DB, cfg *config.Config) {
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute)
}
