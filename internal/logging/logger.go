package logging

import (
	"fmt"
	"os"
	"sync"

	"go-dblog/internal/config"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalFileLogger *zap.Logger
	globalDBLogger   *zap.Logger // Can be nil
	globalLoggersMu  sync.RWMutex
)

// AppLoggers holds the different logger instances for the application.
type AppLoggers struct {
	File *zap.Logger // Console and rotating file; the sink's own diagnostics go here
	DB   *zap.Logger // Console, file and the database table
}

// Custom level encoder function
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

// Custom level encoder function with color for console
func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var colorPrefix, colorSuffix string
	switch level {
	case zapcore.DebugLevel:
		colorPrefix = "\x1b[35m" // Magenta
		colorSuffix = "\x1b[0m"
	case zapcore.InfoLevel:
		colorPrefix = "\x1b[32m" // Green
		colorSuffix = "\x1b[0m"
	case zapcore.WarnLevel:
		colorPrefix = "\x1b[33m" // Yellow
		colorSuffix = "\x1b[0m"
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		colorPrefix = "\x1b[31m" // Red
		colorSuffix = "\x1b[0m"
	}
	enc.AppendString(colorPrefix + "[" + level.CapitalString() + "]" + colorSuffix)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// CreateFileConsoleEncoderConfigs sets up the encoder configurations.
// The console level is coloured only when stdout is a terminal.
func CreateFileConsoleEncoderConfigs() (zapcore.EncoderConfig, zapcore.EncoderConfig) {
	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.EncodeLevel = customLevelEncoder
	if isTerminal(os.Stdout) {
		consoleEncoderCfg.EncodeLevel = customColorLevelEncoder
	}
	consoleEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.EncodeLevel = customLevelEncoder
	fileEncoderCfg.TimeKey = "timestamp"
	fileEncoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	fileEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	return consoleEncoderCfg, fileEncoderCfg
}

// CreateDBEncoderConfig returns the encoder config rendering the formatted
// column. Time, caller and stacktrace are left out since the table stores
// the time separately.
func CreateDBEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = zapcore.OmitKey
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.EncodeLevel = customLevelEncoder
	return cfg
}

// InitializeLoggers creates the file/console logger and, when handler is not
// nil, a logger that additionally writes every entry through handler.
func InitializeLoggers(cfg *config.Config, handler RecordHandler, fileSyncer zapcore.WriteSyncer) (*AppLoggers, error) {
	appLoggers := &AppLoggers{}

	var fileLogLevel zapcore.Level
	if err := fileLogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Invalid LOG_LEVEL '%s' for file/console logger, defaulting to info: %v\n", cfg.LogLevel, err)
		fileLogLevel = zapcore.InfoLevel
	}

	consoleEncoderCfg, fileEncoderCfg := CreateFileConsoleEncoderConfigs()
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderCfg), zapcore.Lock(os.Stdout), fileLogLevel)
	cores := []zapcore.Core{consoleCore}
	if fileSyncer != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderCfg), fileSyncer, fileLogLevel))
	}

	fileAndConsoleCore := zapcore.NewTee(cores...)
	appLoggers.File = zap.New(fileAndConsoleCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	appLoggers.File.Info("File/Console application logger initialized",
		zap.String("environment", cfg.AppEnv),
		zap.String("configuredLevel", cfg.LogLevel),
		zap.String("effectiveLevel", fileLogLevel.String()),
		zap.String("logFile", cfg.LogFilePath),
	)

	if handler == nil {
		appLoggers.File.Info("Database logger is disabled by configuration.")
		appLoggers.DB = appLoggers.File
		return appLoggers, nil
	}

	appLoggers.AttachDB(handler, cfg.LogChannel)
	appLoggers.File.Info("Database logger initialized",
		zap.String("table", cfg.LogTable),
		zap.String("minLevel", cfg.LogDBLevel),
		zap.Strings("additionalFields", cfg.LogAdditionalFields),
	)
	return appLoggers, nil
}

// AttachDB replaces l.DB with a logger writing to everything l.File writes to
// plus handler. Entries without a logger name are stored under channel.
func (l *AppLoggers) AttachDB(handler RecordHandler, channel string) {
	dbCore := NewDBCore(zapcore.DebugLevel, zapcore.NewJSONEncoder(CreateDBEncoderConfig()), handler, channel)
	l.DB = l.File.WithOptions(
		zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, dbCore)
		}),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	)
}

// SetGlobalLoggers sets the global logger instances.
func SetGlobalLoggers(fileLogger, dbLogger *zap.Logger) {
	globalLoggersMu.Lock()
	defer globalLoggersMu.Unlock()
	globalFileLogger = fileLogger
	if dbLogger != nil {
		globalDBLogger = dbLogger
	} else {
		globalDBLogger = zap.NewNop()
	}
}

// GetFileLogger returns the initialized global file/console logger.
func GetFileLogger() *zap.Logger {
	globalLoggersMu.RLock()
	l := globalFileLogger
	globalLoggersMu.RUnlock()

	if l == nil {
		fallbackLogger, _ := zap.NewProduction()
		fallbackLogger.Warn("Global file/console logger accessed before being set!")
		return fallbackLogger
	}
	return l
}

// GetDBLogger returns the initialized global database logger, or a Nop
// logger if it was never set.
func GetDBLogger() *zap.Logger {
	globalLoggersMu.RLock()
	l := globalDBLogger
	globalLoggersMu.RUnlock()

	if l == nil {
		return zap.NewNop()
	}
	return l
}
