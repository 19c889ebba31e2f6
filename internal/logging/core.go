package logging

import (
	"context"
	"strings"
	"time"

	"go-dblog/internal/models"

	"go.uber.org/zap/zapcore"
)

// dbWriteTimeout bounds a single record write issued from a zap core, which
// has no caller context to inherit.
const dbWriteTimeout = 5 * time.Second

// dbCore implements zapcore.Core and hands every entry to a RecordHandler.
type dbCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	handler RecordHandler
	channel string
	fields  []zapcore.Field // Fields added via logger.With()
}

// NewDBCore creates a core converting zap entries into log records. The
// record channel is the logger name, or channel for unnamed loggers. enc
// renders the formatted column.
func NewDBCore(enab zapcore.LevelEnabler, enc zapcore.Encoder, handler RecordHandler, channel string) zapcore.Core {
	return &dbCore{
		LevelEnabler: enab,
		encoder:      enc.Clone(),
		handler:      handler,
		channel:      channel,
	}
}

// ZapLevel maps a zap level onto the stored level scale.
func ZapLevel(l zapcore.Level) models.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return models.LevelDebug
	case l == zapcore.InfoLevel:
		return models.LevelInfo
	case l == zapcore.WarnLevel:
		return models.LevelWarning
	case l == zapcore.ErrorLevel:
		return models.LevelError
	case l == zapcore.DPanicLevel:
		return models.LevelCritical
	case l == zapcore.PanicLevel:
		return models.LevelAlert
	default:
		return models.LevelEmergency
	}
}

func (c *dbCore) Enabled(level zapcore.Level) bool {
	return c.LevelEnabler.Enabled(level) && c.handler.IsHandling(ZapLevel(level))
}

func (c *dbCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *dbCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write returns the handler's error so zap reports it on its ErrorOutput.
func (c *dbCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	allFields := append(append([]zapcore.Field(nil), c.fields...), fields...)

	mapEncoder := zapcore.NewMapObjectEncoder()
	for _, field := range allFields {
		field.AddTo(mapEncoder)
	}

	channel := ent.LoggerName
	if channel == "" {
		channel = c.channel
	}
	record := models.LogRecord{
		Channel: channel,
		Level:   ZapLevel(ent.Level),
		Message: ent.Message,
		Time:    ent.Time.Unix(),
		Context: mapEncoder.Fields,
	}

	buf, err := c.encoder.EncodeEntry(ent, allFields)
	if err != nil {
		return err
	}
	record.Formatted = strings.TrimRight(buf.String(), "\n")
	buf.Free()

	ctx, cancel := context.WithTimeout(context.Background(), dbWriteTimeout)
	defer cancel()
	_, err = c.handler.Handle(ctx, record)
	return err
}

func (c *dbCore) Sync() error {
	return nil
}

func (c *dbCore) clone() *dbCore {
	return &dbCore{
		LevelEnabler: c.LevelEnabler,
		encoder:      c.encoder.Clone(),
		handler:      c.handler,
		channel:      c.channel,
		fields:       append([]zapcore.Field(nil), c.fields...),
	}
}
