package logging

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go-dblog/internal/models"
	"go-dblog/internal/repositories"

	"go.uber.org/zap"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "logs"

// ErrInvalidIdentifier is returned for table or field names that are not
// plain SQL identifiers, or additional fields that shadow a base column.
var ErrInvalidIdentifier = errors.New("invalid log table identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// RecordHandler is one link of a handler chain.
type RecordHandler interface {
	IsHandling(level models.Level) bool
	// Handle processes record. stop reports whether the record must not be
	// passed on to the remaining handlers.
	Handle(ctx context.Context, record models.LogRecord) (stop bool, err error)
}

// DBHandler persists log records into a database table. The table is created
// and its extra columns reconciled on the first write; later writes only
// insert.
//
// Errors from the database are returned to the caller unchanged, so a logging
// call can fail when the database does.
type DBHandler struct {
	repo       repositories.LogRepository
	table      string
	additional []string
	level      models.Level
	bubble     bool
	logger     *zap.Logger

	mu          sync.Mutex
	initialized bool
	resolved    []string
}

// Option configures a DBHandler.
type Option func(*DBHandler)

// WithLevel sets the minimum level the handler stores. Default DEBUG.
func WithLevel(level models.Level) Option {
	return func(h *DBHandler) { h.level = level }
}

// WithTable sets the destination table. Default "logs".
func WithTable(table string) Option {
	return func(h *DBHandler) { h.table = table }
}

// WithAdditionalFields sets the extra columns, each filled from the record
// context key of the same name. A field naming a base column, in any case,
// makes NewDBHandler fail with ErrInvalidIdentifier.
func WithAdditionalFields(fields ...string) Option {
	return func(h *DBHandler) { h.additional = append([]string(nil), fields...) }
}

// WithBubble sets whether handled records continue to the next handler.
// Default true.
func WithBubble(bubble bool) Option {
	return func(h *DBHandler) { h.bubble = bubble }
}

// WithLogger sets the logger receiving the handler's own diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(h *DBHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewDBHandler creates a handler writing through repo. The repository's
// database handle is borrowed and never closed by the handler.
func NewDBHandler(repo repositories.LogRepository, opts ...Option) (*DBHandler, error) {
	if repo == nil {
		return nil, fmt.Errorf("new db handler: nil repository: %w", repositories.ErrConnection)
	}
	h := &DBHandler{
		repo:   repo,
		table:  DefaultTable,
		level:  models.LevelDebug,
		bubble: true,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if !identifierPattern.MatchString(h.table) {
		return nil, fmt.Errorf("table %q: %w", h.table, ErrInvalidIdentifier)
	}
	seen := make(map[string]struct{}, len(h.additional))
	fields := h.additional[:0]
	for _, f := range h.additional {
		if !identifierPattern.MatchString(f) {
			return nil, fmt.Errorf("additional field %q: %w", f, ErrInvalidIdentifier)
		}
		if models.IsBaseField(f) {
			return nil, fmt.Errorf("additional field %q shadows a base column: %w", f, ErrInvalidIdentifier)
		}
		key := strings.ToLower(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fields = append(fields, f)
	}
	h.additional = fields
	return h, nil
}

// Table returns the destination table name.
func (h *DBHandler) Table() string { return h.table }

// AdditionalFields returns the configured extra columns.
func (h *DBHandler) AdditionalFields() []string {
	return append([]string(nil), h.additional...)
}

// IsHandling reports whether records of level reach the database.
func (h *DBHandler) IsHandling(level models.Level) bool {
	return level >= h.level
}

// Handle writes record when its level is handled and reports whether
// propagation must stop.
func (h *DBHandler) Handle(ctx context.Context, record models.LogRecord) (bool, error) {
	if !h.IsHandling(record.Level) {
		return false, nil
	}
	if err := h.Write(ctx, record); err != nil {
		return false, err
	}
	return !h.bubble, nil
}

// Write inserts record, reconciling the table first if this is the first
// successful write of the handler.
func (h *DBHandler) Write(ctx context.Context, record models.LogRecord) error {
	fields, err := h.ensureInitialized(ctx)
	if err != nil {
		return err
	}

	row := make(models.Row, len(fields))
	for i, field := range fields {
		value, _ := record.Lookup(field)
		row[i] = models.Column{Name: field, Value: value}
	}
	return h.repo.Insert(ctx, h.table, row)
}

// Initialize runs the reconciliation now instead of on the first write and
// returns the changes it applied. Once the handler is initialized it returns
// an empty diff.
func (h *DBHandler) Initialize(ctx context.Context) (SchemaDiff, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initializeLocked(ctx)
}

func (h *DBHandler) ensureInitialized(ctx context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.initializeLocked(ctx); err != nil {
		return nil, err
	}
	return h.resolved, nil
}

func (h *DBHandler) initializeLocked(ctx context.Context) (SchemaDiff, error) {
	if h.initialized {
		return SchemaDiff{}, nil
	}
	resolved, diff, err := Reconcile(ctx, h.repo, h.table, h.additional)
	if err != nil {
		h.logger.Error("Log table reconciliation failed", zap.String("table", h.table), zap.Error(err))
		return diff, err
	}
	h.resolved = resolved
	h.initialized = true
	h.logger.Info("Log table reconciled",
		zap.String("table", h.table),
		zap.Strings("added", diff.Added),
		zap.Strings("removed", diff.Removed),
		zap.Strings("fields", resolved),
	)
	return diff, nil
}

// Initialized reports whether the reconciliation has completed.
func (h *DBHandler) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

// ResolvedFields returns the columns written for every record, or nil before
// the handler is initialized.
func (h *DBHandler) ResolvedFields() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.resolved...)
}
