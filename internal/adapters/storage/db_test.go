package storage

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expectedTables is the sorted list of tables after all migrations.
var expectedTables = []string{
	"account",
	"mail_record",
	"schema_version",
}

// TestInitDB_Fresh verifies all migrations apply cleanly to an empty database.
func TestInitDB_Fresh(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := InitDB(ctx, db); err != nil {
		t.Fatalf("InitDB failed on fresh db: %v", err)
	}

	version, err := SchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if len(tables) != len(expectedTables) {
		t.Fatalf("got tables %v, want %v", tables, expectedTables)
	}
	for i, want := range expectedTables {
		if tables[i] != want {
			t.Errorf("table[%d] = %q, want %q", i, tables[i], want)
		}
	}
}

// TestInitDB_Idempotent verifies that running InitDB twice keeps the version stable.
func TestInitDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := InitDB(ctx, db); err != nil {
		t.Fatalf("first InitDB failed: %v", err)
	}
	if err := InitDB(ctx, db); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
	version, _ := SchemaVersion(ctx, db)
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}
}

// TestInitDB_StatusCheck verifies the status column rejects unknown values.
func TestInitDB_StatusCheck(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := InitDB(ctx, db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO mail_record (id, subject, body, recipients, status, created_at) VALUES ('1', 's', 'b', '[]', 'queued', 'x')`)
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown status")
	}
}

// TestFormatTime_SortsLexically verifies stored timestamps sort in time order.
func TestFormatTime_SortsLexically(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := FormatTime(base)
	later := FormatTime(base.Add(1500 * time.Millisecond))
	if !(earlier < later) {
		t.Errorf("%q should sort before %q", earlier, later)
	}
	parsed, err := ParseTime(later)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !parsed.Equal(base.Add(1500 * time.Millisecond)) {
		t.Errorf("round trip = %v", parsed)
	}
}
