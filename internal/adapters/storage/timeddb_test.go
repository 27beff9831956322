package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"bulkmail/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

type recordingObserver struct {
	mu     sync.Mutex
	labels []string
}

// ObserveQuery records the label for later assertions.
func (o *recordingObserver) ObserveQuery(label string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.labels = append(o.labels, label)
}

// TestTimedDB_ExecContext verifies ExecContext records timing.
func TestTimedDB_ExecContext(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)

	_, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")
	if err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
}

// TestTimedDB_QueryAndObserver verifies queries reach both the collector and the observer.
func TestTimedDB_QueryAndObserver(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	obs := &recordingObserver{}
	tdb := NewTimedDB(db, collector, 0).WithObserver(obs)
	ctx := context.Background()

	tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2", collector.TotalRecorded())
	}
	want := []string{"INSERT test", "SELECT test"}
	if len(obs.labels) != len(want) {
		t.Fatalf("labels = %v, want %v", obs.labels, want)
	}
	for i := range want {
		if obs.labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, obs.labels[i], want[i])
		}
	}
}

// TestTimedDB_NilCollector verifies the wrapper works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, nil, 0)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES ('1', 'x')"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
}

// TestTimedDB_ErrorPassthrough verifies driver errors are returned unchanged.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, perf.NewCollector(10), 0)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO missing (id) VALUES (1)"); err == nil {
		t.Error("expected error for missing table")
	}
	if _, err := tdb.QueryContext(context.Background(), "SELECT nope FROM test"); err == nil {
		t.Error("expected error for missing column")
	}
}

// TestQueryLabel covers statement label extraction.
func TestQueryLabel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT id FROM mail_record ORDER BY created_at DESC", "SELECT mail_record"},
		{"select count(*) from account", "SELECT account"},
		{"INSERT INTO mail_record (id) VALUES (?)", "INSERT mail_record"},
		{"UPDATE account SET role = ?", "UPDATE account"},
		{"DELETE FROM account WHERE id = ?", "DELETE account"},
		{"PRAGMA foreign_keys=ON", "PRAGMA"},
		{"   ", "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := queryLabel(tt.query); got != tt.want {
			t.Errorf("queryLabel(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
