package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"go-dblog/internal/models"

	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLogRepositorySQLiteLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(openMemoryDB(t), SQLiteDialect{}, nil)

	if err := repo.EnsureTable(ctx, "logs"); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if err := repo.EnsureTable(ctx, "logs"); err != nil {
		t.Fatalf("EnsureTable second call: %v", err)
	}

	cols, err := repo.Columns(ctx, "logs")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if strings.Join(cols, ",") != strings.Join(models.BaseFields(), ",") {
		t.Fatalf("columns = %v, want %v", cols, models.BaseFields())
	}

	if err := repo.AddColumn(ctx, "logs", "user_id"); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := repo.AddColumn(ctx, "logs", "legacy"); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := repo.DropColumn(ctx, "logs", "legacy"); err != nil {
		t.Fatalf("DropColumn: %v", err)
	}
	cols, err = repo.Columns(ctx, "logs")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if got := strings.Join(cols, ","); got != "id,channel,level,message,formatted,time,user_id" {
		t.Fatalf("columns after alter = %s", got)
	}

	row := models.Row{
		{Name: "id", Value: nil},
		{Name: "channel", Value: "app"},
		{Name: "level", Value: 400},
		{Name: "message", Value: "hello"},
		{Name: "formatted", Value: "[app] hello"},
		{Name: "time", Value: int64(1700000000)},
		{Name: "user_id", Value: "42"},
	}
	if err := repo.Insert(ctx, "logs", row); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	db := repo.(*logRepositoryImpl).db
	var (
		id      int64
		channel string
		level   int
		userID  sql.NullString
	)
	err = db.QueryRow(`SELECT id, channel, level, user_id FROM logs`).Scan(&id, &channel, &level, &userID)
	if err != nil {
		t.Fatalf("select inserted row: %v", err)
	}
	if id != 1 || channel != "app" || level != 400 || userID.String != "42" {
		t.Fatalf("unexpected row: id=%d channel=%s level=%d user_id=%v", id, channel, level, userID)
	}
}

func TestLogRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	nilRepo := NewLogRepository(nil, SQLiteDialect{}, nil)
	if err := nilRepo.EnsureTable(ctx, "logs"); !errors.Is(err, ErrConnection) {
		t.Fatalf("EnsureTable with nil handle: got %v, want ErrConnection", err)
	}
	if err := nilRepo.Insert(ctx, "logs", models.Row{{Name: "channel", Value: "x"}}); !errors.Is(err, ErrConnection) {
		t.Fatalf("Insert with nil handle: got %v, want ErrConnection", err)
	}

	repo := NewLogRepository(openMemoryDB(t), SQLiteDialect{}, nil)
	err := repo.Insert(ctx, "missing", models.Row{{Name: "channel", Value: "x"}})
	if !errors.Is(err, ErrInsert) {
		t.Fatalf("Insert into missing table: got %v, want ErrInsert", err)
	}
	if err := repo.DropColumn(ctx, "missing", "x"); !errors.Is(err, ErrSchema) {
		t.Fatalf("DropColumn on missing table: got %v, want ErrSchema", err)
	}
	if err := repo.Insert(ctx, "logs", nil); !errors.Is(err, ErrInsert) {
		t.Fatalf("Insert empty row: got %v, want ErrInsert", err)
	}
}

func TestLogRepositoryClosedHandle(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = db.Close()

	repo := NewLogRepository(db, SQLiteDialect{}, nil)
	err = repo.EnsureTable(context.Background(), "logs")
	if !errors.Is(err, ErrSchema) || !errors.Is(err, ErrConnection) {
		t.Fatalf("EnsureTable on closed handle: got %v, want ErrSchema and ErrConnection", err)
	}
}
