package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/maildue/maildue/internal/config"
	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/schedule"
)

// testDB creates a test database with migrations.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := &config.DatabaseConfig{
		Path:        dbPath,
		ForeignKeys: true,
	}

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testEngine builds an engine with a frozen clock.
func testEngine(t *testing.T, db *database.DB, now time.Time) (*Engine, *schedule.Store) {
	t.Helper()

	store := schedule.NewStore(db, nil)
	eng := New(db, store, nil, &config.EngineConfig{
		SweepInterval:     30 * time.Second,
		BackfillOnStart:   true,
		BackfillLimitDays: 365,
	})
	eng.now = func() time.Time { return now }

	return eng, store
}

func createSchedule(t *testing.T, store *schedule.Store, sched *schedule.EmailSchedule) *schedule.EmailSchedule {
	t.Helper()

	if err := store.Create(context.Background(), sched); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return sched
}

func dailySchedule(sendTime string) *schedule.EmailSchedule {
	return &schedule.EmailSchedule{
		Name:          "daily-digest",
		To:            "team@example.com",
		Subject:       "Digest {{date}}",
		Body:          "<p>Daily digest</p>",
		FrequencyType: schedule.FrequencyDaily,
		SendTime:      sendTime,
		Language:      "en",
		Active:        true,
	}
}
