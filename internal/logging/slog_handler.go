package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go-dblog/internal/models"
)

// SlogHandler implements slog.Handler on top of a RecordHandler. Groups are
// flattened into dotted context keys.
type SlogHandler struct {
	handler RecordHandler
	channel string
	attrs   map[string]any
	prefix  string
}

// NewSlogHandler creates a slog handler. A "channel" attribute overrides
// channel for a record.
func NewSlogHandler(handler RecordHandler, channel string) *SlogHandler {
	return &SlogHandler{handler: handler, channel: channel, attrs: map[string]any{}}
}

// SlogLevel maps a slog level onto the stored level scale.
func SlogLevel(l slog.Level) models.Level {
	switch {
	case l < slog.LevelInfo:
		return models.LevelDebug
	case l < slog.LevelWarn:
		return models.LevelInfo
	case l < slog.LevelError:
		return models.LevelWarning
	case l < slog.LevelError+4:
		return models.LevelError
	default:
		return models.LevelCritical
	}
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.handler.IsHandling(SlogLevel(level))
}

// Handle stores r. A zero r.Time is replaced by the current time.
func (h *SlogHandler) Handle(ctx context.Context, r slog.Record) error {
	recordTime := r.Time
	if recordTime.IsZero() {
		recordTime = time.Now()
	}
	record := models.LogRecord{
		Channel: h.channel,
		Level:   SlogLevel(r.Level),
		Message: r.Message,
		Time:    recordTime.Unix(),
		Context: make(map[string]any, len(h.attrs)+r.NumAttrs()),
	}
	for k, v := range h.attrs {
		record.Context[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(record.Context, h.prefix, a)
		return true
	})
	if ch, ok := record.Context[ChannelField].(string); ok && ch != "" {
		record.Channel = ch
		delete(record.Context, ChannelField)
	}
	record.Formatted = FormatLine(record)

	_, err := h.handler.Handle(ctx, record)
	return err
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	for _, a := range attrs {
		addAttr(clone.attrs, clone.prefix, a)
	}
	return clone
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.prefix = h.prefix + name + "."
	return clone
}

func (h *SlogHandler) clone() *SlogHandler {
	attrs := make(map[string]any, len(h.attrs))
	for k, v := range h.attrs {
		attrs[k] = v
	}
	return &SlogHandler{handler: h.handler, channel: h.channel, attrs: attrs, prefix: h.prefix}
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			addAttr(dst, p, ga)
		}
		return
	}
	dst[prefix+a.Key] = a.Value.Any()
}

// FormatLine renders the fallback formatted column: "[channel] LEVEL: message".
func FormatLine(r models.LogRecord) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(r.Channel)
	b.WriteString("] ")
	b.WriteString(r.Level.String())
	b.WriteString(": ")
	b.WriteString(r.Message)
	return b.String()
}
