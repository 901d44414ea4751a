package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestRun(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	// Every migration file opens with a comment line; all of its tables
	// must still exist afterwards.
	for _, table := range []string{
		"email_schedules",
		"schedule_instances",
		"_maildue_generation_state",
		"events",
	} {
		var count int
		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&count)
		if err != nil {
			t.Fatalf("checking %s table: %v", table, err)
		}
		if count != 1 {
			t.Errorf("%s table does not exist", table)
		}
	}

	var applied int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM _maildue_internal_versions").Scan(&applied)
	if err != nil {
		t.Fatalf("version table query failed: %v", err)
	}
	if applied == 0 {
		t.Error("expected at least one migration to be applied")
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}

	if err := Run(ctx, db); err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM _maildue_internal_versions").Scan(&count)
	if err != nil {
		t.Fatalf("version table query failed: %v", err)
	}

	applied, err := GetApplied(ctx, db)
	if err != nil {
		t.Fatalf("GetApplied() failed: %v", err)
	}

	if len(applied) != count {
		t.Errorf("expected %d applied migrations, got %d", count, len(applied))
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "comment before statement is dropped",
			content: "-- schema for things\nCREATE TABLE things (id TEXT);",
			want:    []string{"CREATE TABLE things (id TEXT)"},
		},
		{
			name:    "trailing comment is dropped",
			content: "CREATE TABLE things (id TEXT); -- the table",
			want:    []string{"CREATE TABLE things (id TEXT)"},
		},
		{
			name:    "semicolon inside comment does not split",
			content: "-- not a statement; really\nCREATE TABLE things (id TEXT);",
			want:    []string{"CREATE TABLE things (id TEXT)"},
		},
		{
			name:    "semicolon inside string does not split",
			content: "INSERT INTO things VALUES ('a;b');",
			want:    []string{"INSERT INTO things VALUES ('a;b')"},
		},
		{
			name:    "comment-only content yields nothing",
			content: "-- nothing here\n-- at all\n",
			want:    nil,
		},
		{
			name: "multiple statements with interleaved comments",
			content: `-- first
CREATE TABLE a (id TEXT);
-- second
CREATE INDEX idx_a ON a (id);`,
			want: []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX idx_a ON a (id)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d statements %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if strings.TrimSpace(got[i]) != tt.want[i] {
					t.Errorf("statement %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
