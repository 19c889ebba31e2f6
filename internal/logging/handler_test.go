package logging

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"go-dblog/internal/models"
	"go-dblog/internal/repositories"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	cols, err := repositories.NewLogRepository(db, repositories.SQLiteDialect{}, nil).Columns(context.Background(), table)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	return cols
}

func TestDBHandlerCreatesTableAndInserts(t *testing.T) {
	db := openSQLite(t)
	h, err := NewDBHandler(repositories.NewLogRepository(db, repositories.SQLiteDialect{}, nil))
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}

	rec := models.LogRecord{
		Channel:   "app",
		Level:     models.LevelError,
		Message:   "hello",
		Formatted: "[app] hello",
		Time:      1700000000,
	}
	if err := h.Write(context.Background(), rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := strings.Join(tableColumns(t, db, "logs"), ","); got != "id,channel,level,message,formatted,time" {
		t.Fatalf("columns = %s", got)
	}

	var (
		count                       int
		channel, message, formatted string
		level                       int
		ts                          int64
	)
	if err := db.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&count); err != nil || count != 1 {
		t.Fatalf("row count = %d, err = %v", count, err)
	}
	err = db.QueryRow(`SELECT channel, level, message, formatted, time FROM logs`).Scan(&channel, &level, &message, &formatted, &ts)
	if err != nil {
		t.Fatalf("select row: %v", err)
	}
	if channel != "app" || level != 400 || message != "hello" || formatted != "[app] hello" || ts != 1700000000 {
		t.Fatalf("unexpected row: %s %d %s %s %d", channel, level, message, formatted, ts)
	}
}

func TestDBHandlerMigratesExistingTable(t *testing.T) {
	db := openSQLite(t)
	_, err := db.Exec(`CREATE TABLE logs (id INTEGER PRIMARY KEY AUTOINCREMENT, channel VARCHAR(180), level INTEGER,
message TEXT, formatted TEXT, time INTEGER, legacy TEXT)`)
	if err != nil {
		t.Fatalf("seed table: %v", err)
	}

	h, err := NewDBHandler(
		repositories.NewLogRepository(db, repositories.SQLiteDialect{}, nil),
		WithAdditionalFields("user_id"),
	)
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}
	rec := models.LogRecord{Channel: "app", Level: models.LevelInfo, Message: "login", Time: 1700000000,
		Context: map[string]any{"user_id": 42}}
	if err := h.Write(context.Background(), rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := strings.Join(tableColumns(t, db, "logs"), ","); got != "id,channel,level,message,formatted,time,user_id" {
		t.Fatalf("columns = %s", got)
	}
	var userID string
	if err := db.QueryRow(`SELECT user_id FROM logs`).Scan(&userID); err != nil {
		t.Fatalf("select user_id: %v", err)
	}
	if userID != "42" {
		t.Fatalf("user_id = %q, want 42", userID)
	}
}

func TestDBHandlerMissingContextFieldIsNull(t *testing.T) {
	db := openSQLite(t)
	h, err := NewDBHandler(
		repositories.NewLogRepository(db, repositories.SQLiteDialect{}, nil),
		WithAdditionalFields("user_id", "request_id"),
	)
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}
	rec := models.LogRecord{Channel: "app", Level: models.LevelInfo, Message: "partial",
		Context: map[string]any{"request_id": "r-1"}}
	if err := h.Write(context.Background(), rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var userID, requestID sql.NullString
	if err := db.QueryRow(`SELECT user_id, request_id FROM logs`).Scan(&userID, &requestID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if userID.Valid {
		t.Fatalf("user_id should be NULL, got %q", userID.String)
	}
	if requestID.String != "r-1" {
		t.Fatalf("request_id = %q", requestID.String)
	}
}

func TestDBHandlerReconcilesOnce(t *testing.T) {
	repo := newFakeRepo()
	h, err := NewDBHandler(repo, WithAdditionalFields("user_id"))
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}
	if h.Initialized() {
		t.Fatal("handler initialized before first write")
	}

	for i := 0; i < 2; i++ {
		if err := h.Write(context.Background(), models.LogRecord{Channel: "app", Level: models.LevelInfo}); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if repo.columnsCalls != 1 || repo.ensureCalls != 1 {
		t.Fatalf("expected one reconciliation, got ensure=%d columns=%d", repo.ensureCalls, repo.columnsCalls)
	}
	if len(repo.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(repo.rows))
	}
	if got := strings.Join(h.ResolvedFields(), ","); got != "id,channel,level,message,formatted,time,user_id" {
		t.Fatalf("resolved = %s", got)
	}
	if got := strings.Join(repo.rows[0].Names(), ","); got != "id,channel,level,message,formatted,time,user_id" {
		t.Fatalf("row columns = %s", got)
	}
}

func TestDBHandlerConcurrentFirstWritesReconcileOnce(t *testing.T) {
	repo := newFakeRepo()
	h, err := NewDBHandler(repo)
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Write(context.Background(), models.LogRecord{Level: models.LevelInfo})
		}()
	}
	wg.Wait()

	if repo.columnsCalls != 1 {
		t.Fatalf("columns queried %d times, want 1", repo.columnsCalls)
	}
	if len(repo.rows) != 16 {
		t.Fatalf("rows = %d, want 16", len(repo.rows))
	}
}

func TestDBHandlerRetriesFailedReconciliation(t *testing.T) {
	boom := errors.New("table locked")
	repo := newFakeRepo()
	repo.failColumns = boom
	h, err := NewDBHandler(repo)
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}

	if err := h.Write(context.Background(), models.LogRecord{}); !errors.Is(err, boom) {
		t.Fatalf("first Write: got %v, want %v", err, boom)
	}
	if h.Initialized() || len(repo.rows) != 0 {
		t.Fatal("failed reconciliation must leave the handler uninitialized without inserting")
	}

	repo.failColumns = nil
	if err := h.Write(context.Background(), models.LogRecord{}); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if repo.columnsCalls != 2 || !h.Initialized() {
		t.Fatalf("expected a second reconciliation, columns calls = %d", repo.columnsCalls)
	}
}

func TestDBHandlerInsertErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.failInsert = repositories.ErrInsert
	h, err := NewDBHandler(repo)
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}
	if _, err := h.Handle(context.Background(), models.LogRecord{Level: models.LevelError}); !errors.Is(err, repositories.ErrInsert) {
		t.Fatalf("Handle: got %v, want ErrInsert", err)
	}
}

func TestDBHandlerLevelAndBubble(t *testing.T) {
	repo := newFakeRepo()
	h, err := NewDBHandler(repo, WithLevel(models.LevelWarning), WithBubble(false))
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}

	stop, err := h.Handle(context.Background(), models.LogRecord{Level: models.LevelInfo})
	if err != nil || stop {
		t.Fatalf("below-threshold Handle = %v, %v", stop, err)
	}
	if h.Initialized() {
		t.Fatal("skipped record must not trigger reconciliation")
	}

	stop, err = h.Handle(context.Background(), models.LogRecord{Level: models.LevelError})
	if err != nil || !stop {
		t.Fatalf("Handle with bubble=false = %v, %v; want stop", stop, err)
	}

	bubbling, _ := NewDBHandler(newFakeRepo())
	if stop, _ := bubbling.Handle(context.Background(), models.LogRecord{Level: models.LevelDebug}); stop {
		t.Fatal("default handler must bubble")
	}
}

func TestNewDBHandlerValidation(t *testing.T) {
	repo := newFakeRepo()
	cases := []Option{
		WithTable("logs; DROP TABLE users"),
		WithAdditionalFields("user id"),
		WithAdditionalFields("channel"),
		WithAdditionalFields("Message"),
	}
	for i, opt := range cases {
		if _, err := NewDBHandler(repo, opt); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("case %d: got %v, want ErrInvalidIdentifier", i, err)
		}
	}
	if _, err := NewDBHandler(nil); !errors.Is(err, repositories.ErrConnection) {
		t.Errorf("nil repo: got %v, want ErrConnection", err)
	}

	h, err := NewDBHandler(repo, WithTable("app_logs"), WithAdditionalFields("a", "b", "a", "B"))
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}
	if h.Table() != "app_logs" || strings.Join(h.AdditionalFields(), ",") != "a,b" {
		t.Fatalf("table=%s fields=%v", h.Table(), h.AdditionalFields())
	}
}

func TestDBHandlerInitializeReportsDiff(t *testing.T) {
	repo := newFakeRepo("id", "channel", "level", "message", "formatted", "time", "legacy")
	h, err := NewDBHandler(repo, WithAdditionalFields("user_id"))
	if err != nil {
		t.Fatalf("NewDBHandler: %v", err)
	}
	diff, err := h.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if strings.Join(diff.Removed, ",") != "legacy" || strings.Join(diff.Added, ",") != "user_id" {
		t.Fatalf("diff = %+v", diff)
	}
	if diff, _ := h.Initialize(context.Background()); !diff.Empty() {
		t.Fatalf("second Initialize returned %+v", diff)
	}
}
