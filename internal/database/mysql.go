package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-dblog/internal/config"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// InitMySQL opens a MySQL connection pool. cfg.DBDSN uses the
// go-sql-driver format, e.g. "user:pass@tcp(host:3306)/db".
func InitMySQL(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	mysqlCfg, err := mysql.ParseDSN(cfg.DBDSN)
	if err != nil {
		logger.Error("Invalid MySQL DSN", zap.Error(err))
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	logger.Info("Initializing MySQL database connection pool...",
		zap.String("addr", mysqlCfg.Addr),
		zap.String("database", mysqlCfg.DBName),
	)

	connector, err := mysql.NewConnector(mysqlCfg)
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	configurePool(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(ctx)
	cancel()
	if err != nil {
		db.Close()
		logger.Error("Failed to ping MySQL database", zap.Error(err))
		return nil, fmt.Errorf("failed to ping mysql database: %w", err)
	}

	logger.Info("MySQL database pool initialized")
	return db, nil
}
