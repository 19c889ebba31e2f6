package main

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func setupCLIEnv(t *testing.T, additional string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "logs.db")
	t.Setenv("APP_ENV", "local")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", dbPath)
	t.Setenv("LOG_TABLE", "logs")
	t.Setenv("LOG_DB_LEVEL", "debug")
	t.Setenv("LOG_ADDITIONAL_FIELDS", additional)
	return dbPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWriteStoresRecordWithAdditionalField(t *testing.T) {
	dbPath := setupCLIEnv(t, "user_id")

	out, err := runCLI(t, "write", "--channel", "billing", "--level", "error", "--context", "user_id=7", "payment", "failed")
	if err != nil {
		t.Fatalf("write: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Stored ERROR record in logs") {
		t.Fatalf("unexpected output %q", out)
	}

	var channel, message, formatted, userID string
	var level int
	row := openTestDB(t, dbPath).QueryRow(`SELECT channel, level, message, formatted, user_id FROM logs`)
	if err := row.Scan(&channel, &level, &message, &formatted, &userID); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if channel != "billing" || level != 400 || message != "payment failed" || userID != "7" {
		t.Fatalf("row = %q %d %q %q", channel, level, message, userID)
	}
	if formatted != "[billing] ERROR: payment failed" {
		t.Fatalf("formatted = %q", formatted)
	}
}

func TestWriteViaAdapters(t *testing.T) {
	dbPath := setupCLIEnv(t, "")

	for _, via := range []string{"logrus", "slog"} {
		if out, err := runCLI(t, "write", "--via", via, "--level", "warning", "from "+via); err != nil {
			t.Fatalf("write via %s: %v (%s)", via, err, out)
		}
	}
	if out, err := runCLI(t, "write", "--via", "logrus", "--level", "alert", "alerting"); err != nil {
		t.Fatalf("write alert via logrus: %v (%s)", err, out)
	}

	var n int
	if err := openTestDB(t, dbPath).QueryRow(`SELECT COUNT(*) FROM logs WHERE level >= 300`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("stored %d records, want 3", n)
	}
}

func TestWriteRejectsBadInput(t *testing.T) {
	setupCLIEnv(t, "")

	if _, err := runCLI(t, "write", "--context", "novalue", "msg"); err == nil {
		t.Fatal("expected error for malformed --context")
	}
	if _, err := runCLI(t, "write", "--level", "loud", "msg"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := runCLI(t, "write", "--via", "syslog", "msg"); err == nil {
		t.Fatal("expected error for unknown --via")
	}
}

func TestMigrateAndColumns(t *testing.T) {
	setupCLIEnv(t, "user_id")
	out, err := runCLI(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "user_id") || !strings.Contains(out, "added") {
		t.Fatalf("first migrate output missing added column:\n%s", out)
	}

	out, err = runCLI(t, "migrate")
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Fatalf("second migrate should be a no-op:\n%s", out)
	}

	t.Setenv("LOG_ADDITIONAL_FIELDS", "request_id")
	out, err = runCLI(t, "migrate")
	if err != nil {
		t.Fatalf("reconfigured migrate: %v", err)
	}
	if !strings.Contains(out, "dropped") || !strings.Contains(out, "request_id") {
		t.Fatalf("reconfigured migrate output:\n%s", out)
	}
	if !strings.Contains(out, "Resolved fields: id, channel, level, message, formatted, time, request_id") {
		t.Fatalf("resolved fields line missing:\n%s", out)
	}

	out, err = runCLI(t, "columns")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if strings.Contains(out, "user_id") || !strings.Contains(out, "additional") || !strings.Contains(out, "base") {
		t.Fatalf("columns output:\n%s", out)
	}
}

func TestColumnsWithoutTable(t *testing.T) {
	setupCLIEnv(t, "")
	out, err := runCLI(t, "columns")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if !strings.Contains(out, "does not exist") {
		t.Fatalf("output = %q", out)
	}
}
