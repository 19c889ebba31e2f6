package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"go-dblog/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrConnection is returned when the database handle is missing or unreachable.
	ErrConnection = errors.New("log database connection error")
	// ErrSchema is returned when creating, inspecting or altering the log table fails.
	ErrSchema = errors.New("log table schema error")
	// ErrInsert is returned when a log row cannot be inserted.
	ErrInsert = errors.New("log insert error")
)

// LogRepository is the narrow view of the database the log sink depends on.
type LogRepository interface {
	// EnsureTable creates the log table with its base columns and indexes
	// unless it already exists. Existing columns are left untouched.
	EnsureTable(ctx context.Context, table string) error
	// Columns lists the live columns of table in table order.
	Columns(ctx context.Context, table string) ([]string, error)
	AddColumn(ctx context.Context, table, column string) error
	DropColumn(ctx context.Context, table, column string) error
	// Insert writes one row.
	Insert(ctx context.Context, table string, row models.Row) error
}

// logRepositoryImpl implements LogRepository on top of database/sql.
// The handle is borrowed: the repository never closes it.
type logRepositoryImpl struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewLogRepository creates a LogRepository using dialect to render SQL for db.
func NewLogRepository(db *sql.DB, dialect Dialect, logger *zap.Logger) LogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logRepositoryImpl{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

func (r *logRepositoryImpl) EnsureTable(ctx context.Context, table string) error {
	if r.db == nil {
		return fmt.Errorf("create table %s: handle is nil: %w", table, ErrConnection)
	}
	for _, stmt := range r.dialect.CreateTable(table) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			r.logger.Error("Failed to create log table", zap.String("table", table), zap.String("dialect", r.dialect.Name()), zap.Error(err))
			return wrap(fmt.Sprintf("create table %s", table), err, ErrSchema)
		}
	}
	r.logger.Debug("Log table verified/created", zap.String("table", table))
	return nil
}

func (r *logRepositoryImpl) Columns(ctx context.Context, table string) ([]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("list columns of %s: handle is nil: %w", table, ErrConnection)
	}
	query, args := r.dialect.ColumnsQuery(table)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query log table columns", zap.String("table", table), zap.Error(err))
		return nil, wrap(fmt.Sprintf("list columns of %s", table), err, ErrSchema)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrap(fmt.Sprintf("scan column of %s", table), err, ErrSchema)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(fmt.Sprintf("iterate columns of %s", table), err, ErrSchema)
	}
	return columns, nil
}

func (r *logRepositoryImpl) AddColumn(ctx context.Context, table, column string) error {
	return r.alter(ctx, "add", table, column, r.dialect.AddColumn(table, column))
}

func (r *logRepositoryImpl) DropColumn(ctx context.Context, table, column string) error {
	return r.alter(ctx, "drop", table, column, r.dialect.DropColumn(table, column))
}

func (r *logRepositoryImpl) alter(ctx context.Context, op, table, column, stmt string) error {
	if r.db == nil {
		return fmt.Errorf("%s column %s.%s: handle is nil: %w", op, table, column, ErrConnection)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		r.logger.Error("Failed to alter log table", zap.String("op", op), zap.String("table", table), zap.String("column", column), zap.Error(err))
		return wrap(fmt.Sprintf("%s column %s.%s", op, table, column), err, ErrSchema)
	}
	r.logger.Info("Log table altered", zap.String("op", op), zap.String("table", table), zap.String("column", column))
	return nil
}

func (r *logRepositoryImpl) Insert(ctx context.Context, table string, row models.Row) error {
	if r.db == nil {
		return fmt.Errorf("insert into %s: handle is nil: %w", table, ErrConnection)
	}
	if len(row) == 0 {
		return fmt.Errorf("insert into %s: empty row: %w", table, ErrInsert)
	}

	columns := row.Names()
	placeholders := make([]string, len(columns))
	for i, name := range columns {
		columns[i] = r.dialect.Quote(name)
		placeholders[i] = r.dialect.Placeholder(i + 1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		r.dialect.Quote(table), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, row.Values()...); err != nil {
		return wrap(fmt.Sprintf("insert into %s", table), err, ErrInsert)
	}
	return nil
}

// wrap annotates err with its category and, when the failure looks like a
// lost connection, with ErrConnection as well.
func wrap(op string, err error, kind error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %w: %w", op, err, kind, ErrConnection)
	}
	return fmt.Errorf("%s: %w: %w", op, err, kind)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused", "broken pipe", "reset by peer", "i/o timeout",
		"invalid connection", "bad connection", "database is closed",
		"ora-03113", "ora-03114", "ora-12541",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
