package logging

import (
	"context"
	"strings"

	"go-dblog/internal/models"

	"github.com/sirupsen/logrus"
)

// ChannelField is the logrus/slog attribute that overrides the record channel.
const ChannelField = "channel"

// LogrusHook feeds logrus entries into a RecordHandler.
type LogrusHook struct {
	handler RecordHandler
	channel string
}

// NewLogrusHook creates a hook. Entries carrying a "channel" field use it as
// the record channel; all others use channel.
func NewLogrusHook(handler RecordHandler, channel string) *LogrusHook {
	return &LogrusHook{handler: handler, channel: channel}
}

// LogrusLevel maps a logrus level onto the stored level scale.
func LogrusLevel(l logrus.Level) models.Level {
	switch l {
	case logrus.PanicLevel:
		return models.LevelAlert
	case logrus.FatalLevel:
		return models.LevelEmergency
	case logrus.ErrorLevel:
		return models.LevelError
	case logrus.WarnLevel:
		return models.LevelWarning
	case logrus.InfoLevel:
		return models.LevelInfo
	default:
		return models.LevelDebug
	}
}

// Levels returns the logrus levels the wrapped handler accepts.
func (h *LogrusHook) Levels() []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if h.handler.IsHandling(LogrusLevel(l)) {
			levels = append(levels, l)
		}
	}
	return levels
}

func (h *LogrusHook) Fire(entry *logrus.Entry) error {
	record := models.LogRecord{
		Channel: h.channel,
		Level:   LogrusLevel(entry.Level),
		Message: entry.Message,
		Time:    entry.Time.Unix(),
		Context: make(map[string]any, len(entry.Data)),
	}
	for k, v := range entry.Data {
		if k == ChannelField {
			if s, ok := v.(string); ok && s != "" {
				record.Channel = s
				continue
			}
		}
		record.Context[k] = v
	}
	if entry.Logger != nil && entry.Logger.Formatter != nil {
		if formatted, err := entry.String(); err == nil {
			record.Formatted = strings.TrimRight(formatted, "\n")
		}
	}
	if record.Formatted == "" {
		record.Formatted = FormatLine(record)
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, dbWriteTimeout)
	defer cancel()
	_, err := h.handler.Handle(ctx, record)
	return err
}
