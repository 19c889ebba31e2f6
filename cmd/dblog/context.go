package main

import (
	"database/sql"
	"errors"
	"os"
	"sync"

	"go-dblog/internal/bootstrap"
	"go-dblog/internal/config"
	"go-dblog/internal/database"
	"go-dblog/internal/logging"
	"go-dblog/internal/repositories"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type commandContext struct {
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	sinkOnce sync.Once
	db       *sql.DB
	repo     repositories.LogRepository
	handler  *logging.DBHandler
	sinkErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
}

func newCommandContext(verboseFlag *bool) *commandContext {
	return &commandContext{verboseFlag: verboseFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.LoadConfig(c.diagnostics())
	})
	return c.config, c.configErr
}

// diagnostics returns a stderr logger when --verbose is set, a no-op logger
// otherwise. Command output goes to stdout only.
func (c *commandContext) diagnostics() *zap.Logger {
	c.loggerOnce.Do(func() {
		if c.verboseFlag == nil || !*c.verboseFlag {
			c.logger = zap.NewNop()
			return
		}
		consoleCfg, _ := logging.CreateFileConsoleEncoderConfigs()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
		c.logger = zap.New(core)
	})
	return c.logger
}

// ensureSink opens the database and builds the handler described by the
// configuration. The schema is not touched.
func (c *commandContext) ensureSink() (repositories.LogRepository, *logging.DBHandler, error) {
	c.sinkOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.sinkErr = err
			return
		}
		db, err := database.Open(cfg, c.diagnostics())
		if err != nil {
			c.sinkErr = err
			return
		}
		repo, handler, err := bootstrap.NewDBHandler(cfg, db, c.diagnostics())
		if err != nil {
			db.Close()
			c.sinkErr = err
			return
		}
		c.db, c.repo, c.handler = db, repo, handler
	})
	return c.repo, c.handler, c.sinkErr
}

func (c *commandContext) close() error {
	var errs []error
	if c.db != nil {
		errs = append(errs, c.db.Close())
		c.db = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	return errors.Join(errs...)
}
