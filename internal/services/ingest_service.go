package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go-dblog/internal/logging"
	"go-dblog/internal/models"

	"go.uber.org/zap"
)

// ErrInvalidLevel is returned for a missing level, or one that is neither a
// known name nor an integer between 0 and models.MaxLevel.
var ErrInvalidLevel = errors.New("invalid log level")

// IngestRequest is one record submitted over HTTP.
type IngestRequest struct {
	Channel   string         `json:"channel" validate:"required,max=180"`
	Level     any            `json:"level"` // name or number; checked by parseLevelValue
	Message   string         `json:"message" validate:"required"`
	Formatted string         `json:"formatted"`
	Time      int64          `json:"time" validate:"gte=0"` // unix seconds, 0 means now
	Context   map[string]any `json:"context"`
}

// IngestResult describes what happened to an ingested record.
type IngestResult struct {
	Level   models.Level
	Handled bool // false when every handler skipped the level
	Stopped bool
}

// IngestService turns ingestion requests into log records for the sink.
type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
}

type ingestServiceImpl struct {
	sink   logging.RecordHandler
	logger *zap.Logger
	now    func() time.Time
}

// NewIngestService creates an IngestService writing to sink.
func NewIngestService(sink logging.RecordHandler, logger *zap.Logger) IngestService {
	return &ingestServiceImpl{sink: sink, logger: logger, now: time.Now}
}

func (s *ingestServiceImpl) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	level, err := parseLevelValue(req.Level)
	if err != nil {
		return IngestResult{}, err
	}

	record := models.LogRecord{
		Channel:   req.Channel,
		Level:     level,
		Message:   req.Message,
		Formatted: req.Formatted,
		Time:      req.Time,
		Context:   req.Context,
	}
	if record.Time == 0 {
		record.Time = s.now().Unix()
	}
	if record.Formatted == "" {
		record.Formatted = logging.FormatLine(record)
	}

	result := IngestResult{Level: level, Handled: s.sink.IsHandling(level)}
	if !result.Handled {
		return result, nil
	}
	stopped, err := s.sink.Handle(ctx, record)
	if err != nil {
		s.logger.Error("Failed to store ingested record", zap.String("channel", record.Channel), zap.Stringer("level", level), zap.Error(err))
		return result, err
	}
	result.Stopped = stopped
	return result, nil
}

func parseLevelValue(v any) (models.Level, error) {
	switch val := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: level is required", ErrInvalidLevel)
	case float64:
		if val < 0 || val > models.MaxLevel || val != math.Trunc(val) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidLevel, val)
		}
		return models.Level(val), nil
	case string:
		level, err := models.ParseLevel(val)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
		}
		return level, nil
	case int:
		return parseLevelValue(strconv.Itoa(val))
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidLevel, v)
}
