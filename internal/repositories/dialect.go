package repositories

import (
	"fmt"
	"strings"
)

// Dialect renders the SQL a LogRepository needs for one database flavour.
type Dialect interface {
	Name() string
	// Quote returns ident as a quoted identifier.
	Quote(ident string) string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// CreateTable returns the statements creating the log table and its
	// indexes. Every statement must be a no-op when the object already exists.
	CreateTable(table string) []string
	// ColumnsQuery returns a query yielding one column name per row, in
	// table order.
	ColumnsQuery(table string) (string, []any)
	AddColumn(table, column string) string
	DropColumn(table, column string) string
}

// DialectFor returns the dialect matching a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return MySQLDialect{}, nil
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	case "oracle", "godror":
		return OracleDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// MySQLDialect is the original target of the log table layout.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (MySQLDialect) Placeholder(int) string { return "?" }

func (d MySQLDialect) CreateTable(table string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + d.Quote(table) + ` (` +
			"`id` BIGINT(20) NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
			"`channel` VARCHAR(180), " +
			"`level` INTEGER, " +
			"`message` LONGTEXT, " +
			"`formatted` LONGTEXT, " +
			"`time` INTEGER UNSIGNED, " +
			"INDEX(`channel`) USING HASH, " +
			"INDEX(`level`) USING HASH, " +
			"INDEX(`time`) USING BTREE)",
	}
}

func (MySQLDialect) ColumnsQuery(table string) (string, []any) {
	return `SELECT COLUMN_NAME FROM information_schema.COLUMNS ` +
		`WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`, []any{table}
}

func (d MySQLDialect) AddColumn(table, column string) string {
	return `ALTER TABLE ` + d.Quote(table) + ` ADD ` + d.Quote(column) + ` TEXT NULL DEFAULT NULL`
}

func (d MySQLDialect) DropColumn(table, column string) string {
	return `ALTER TABLE ` + d.Quote(table) + ` DROP ` + d.Quote(column)
}

// SQLiteDialect serves both the mattn (cgo) and modernc (pure Go) drivers.
// SQLite has no hash indexes, so all three indexes are plain b-trees.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (d SQLiteDialect) CreateTable(table string) []string {
	q := d.Quote(table)
	index := func(column string) string {
		return `CREATE INDEX IF NOT EXISTS ` + d.Quote(table+"_"+column+"_idx") + ` ON ` + q + ` (` + d.Quote(column) + `)`
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + q + ` (
"id" INTEGER PRIMARY KEY AUTOINCREMENT,
"channel" VARCHAR(180),
"level" INTEGER,
"message" TEXT,
"formatted" TEXT,
"time" INTEGER
)`,
		index("channel"),
		index("level"),
		index("time"),
	}
}

func (SQLiteDialect) ColumnsQuery(table string) (string, []any) {
	return `SELECT name FROM pragma_table_info(?) ORDER BY cid`, []any{table}
}

func (d SQLiteDialect) AddColumn(table, column string) string {
	return `ALTER TABLE ` + d.Quote(table) + ` ADD COLUMN ` + d.Quote(column) + ` TEXT NULL DEFAULT NULL`
}

func (d SQLiteDialect) DropColumn(table, column string) string {
	return `ALTER TABLE ` + d.Quote(table) + ` DROP COLUMN ` + d.Quote(column)
}

// OracleDialect keeps identifiers quoted and lower-case so that reserved
// words such as LEVEL stay usable as column names.
type OracleDialect struct{}

func (OracleDialect) Name() string { return "oracle" }

func (OracleDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (OracleDialect) Placeholder(n int) string { return fmt.Sprintf(":%d", n) }

// ORA-00955: name is already used by an existing object.
// ORA-01408: such column list already indexed.
func oracleIgnoreExisting(ddl string) string {
	return `BEGIN
  EXECUTE IMMEDIATE '` + strings.ReplaceAll(ddl, `'`, `''`) + `';
EXCEPTION
  WHEN OTHERS THEN
    IF SQLCODE NOT IN (-955, -1408) THEN
      RAISE;
    END IF;
END;`
}

func (d OracleDialect) CreateTable(table string) []string {
	q := d.Quote(table)
	index := func(column string) string {
		return oracleIgnoreExisting(`CREATE INDEX ` + d.Quote(table+"_"+column+"_idx") + ` ON ` + q + ` (` + d.Quote(column) + `)`)
	}
	return []string{
		oracleIgnoreExisting(`CREATE TABLE ` + q + ` (` +
			`"id" NUMBER(19) GENERATED BY DEFAULT ON NULL AS IDENTITY PRIMARY KEY, ` +
			`"channel" VARCHAR2(180), ` +
			`"level" NUMBER(10), ` +
			`"message" CLOB, ` +
			`"formatted" CLOB, ` +
			`"time" NUMBER(10))`),
		index("channel"),
		index("level"),
		index("time"),
	}
}

func (OracleDialect) ColumnsQuery(table string) (string, []any) {
	return `SELECT column_name FROM user_tab_columns WHERE table_name = :1 ORDER BY column_id`, []any{table}
}

func (d OracleDialect) AddColumn(table, column string) string {
	return `ALTER TABLE ` + d.Quote(table) + ` ADD (` + d.Quote(column) + ` CLOB DEFAULT NULL NULL)`
}

func (d OracleDialect) DropColumn(table, column string) string {
	return `ALTER TABLE ` + d.Quote(table) + ` DROP COLUMN ` + d.Quote(column)
}
