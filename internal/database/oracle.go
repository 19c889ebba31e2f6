package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-dblog/internal/config"

	"github.com/godror/godror"
	"go.uber.org/zap"
)

// InitOracle opens an Oracle connection pool through godror. cfg.DBDSN is a
// godror connection string, e.g. `user="app" password="..." connectString="db:1521/ORCLPDB1"`.
// A failed first ping is only a warning: the pool connects lazily and the
// first log write reports the failure.
func InitOracle(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	params, err := godror.ParseConnString(cfg.DBDSN)
	if err != nil {
		logger.Error("Invalid Oracle connection string", zap.Error(err))
		return nil, fmt.Errorf("parse oracle connection string: %w", err)
	}
	logger.Info("Initializing Oracle database connection pool...",
		zap.String("user", params.Username),
		zap.String("connect_string", params.ConnectString),
	)

	db := sql.OpenDB(godror.NewConnector(params))
	configurePool(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(ctx)
	cancel()
	if err != nil {
		logger.Warn("Initial Oracle ping failed; the pool will retry on first use", zap.Error(err))
		return db, nil
	}

	logger.Info("Oracle database pool initialized")
	return db, nil
}
