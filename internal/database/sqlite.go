package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-dblog/internal/config"

	_ "github.com/mattn/go-sqlite3" // SQLite driver "sqlite3" (cgo)
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver "sqlite" (pure Go)
)

// InitSQLite opens the SQLite database named by cfg.DBDSN with the driver in
// cfg.DBDriver ("sqlite3" or "sqlite"), creating the parent directory of
// file databases when needed.
func InitSQLite(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	logger.Info("Initializing SQLite database...", zap.String("driver", cfg.DBDriver), zap.String("requested_path", cfg.DBDSN))

	path := strings.TrimPrefix(cfg.DBDSN, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" && path != "" {
		dbDir := filepath.Dir(path)
		if dbDir != "." && dbDir != "/" {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				logger.Error("Failed to create SQLite database directory", zap.String("path", dbDir), zap.Error(err))
				return nil, fmt.Errorf("failed to create sqlite db directory %s: %w", dbDir, err)
			}
		}
	}

	db, err := sql.Open(cfg.DBDriver, sqliteDSN(cfg.DBDriver, cfg.DBDSN))
	if err != nil {
		logger.Error("Failed to open SQLite database", zap.String("path", cfg.DBDSN), zap.Error(err))
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", cfg.DBDSN, err)
	}

	// A single writer avoids SQLITE_BUSY between log inserts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error("Failed to ping SQLite database after open", zap.Error(err))
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	logger.Info("SQLite database initialized successfully", zap.String("path", cfg.DBDSN))
	return db, nil
}

// sqliteDSN appends WAL and busy-timeout settings in the syntax each driver
// understands, unless the DSN already carries query parameters.
func sqliteDSN(driver, dsn string) string {
	if strings.Contains(dsn, "?") || dsn == ":memory:" {
		return dsn
	}
	if driver == "sqlite" {
		return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	return dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}
