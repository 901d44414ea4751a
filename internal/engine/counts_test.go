package engine

import (
	"context"
	"testing"
	"time"
)

func TestCountsFor(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	// Two due in the morning (overdue by noon), one due in the evening.
	early := dailySchedule("09:00")
	early.Name = "early"
	createSchedule(t, store, early)

	early2 := dailySchedule("10:00")
	early2.Name = "early-2"
	createSchedule(t, store, early2)

	late := dailySchedule("18:00")
	late.Name = "late"
	createSchedule(t, store, late)

	if _, err := eng.GenerateForDate(ctx, now); err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}

	counts, err := eng.CountsFor(ctx, now)
	if err != nil {
		t.Fatalf("CountsFor() error = %v", err)
	}

	if counts.Pending != 1 {
		t.Errorf("pending = %d, want 1", counts.Pending)
	}
	if counts.Overdue != 2 {
		t.Errorf("overdue = %d, want 2", counts.Overdue)
	}
	if counts.Total != counts.Pending+counts.Overdue {
		t.Errorf("total = %d, want pending+overdue = %d", counts.Total, counts.Pending+counts.Overdue)
	}
}

func TestCountsFor_ExcludesTerminalAndInactive(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	first := dailySchedule("09:00")
	first.Name = "first"
	createSchedule(t, store, first)

	second := dailySchedule("10:00")
	second.Name = "second"
	secondCreated := createSchedule(t, store, second)

	if _, err := eng.GenerateForDate(ctx, now); err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}

	instances, err := eng.Instances().ListForDate(ctx, now.Format(DateFormat))
	if err != nil {
		t.Fatalf("ListForDate() error = %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("ListForDate() = %d instances, want 2", len(instances))
	}

	// A sent instance drops out of the counts. Ordered by send time, the
	// first entry belongs to the 09:00 schedule.
	if err := eng.MarkSent(ctx, instances[0].ID, "alice"); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}

	counts, err := eng.CountsFor(ctx, now)
	if err != nil {
		t.Fatalf("CountsFor() error = %v", err)
	}
	if counts.Total != 1 {
		t.Errorf("total after send = %d, want 1", counts.Total)
	}

	// Deactivating the remaining schedule removes its instance too.
	if err := store.SetActive(ctx, secondCreated.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	counts, err = eng.CountsFor(ctx, now)
	if err != nil {
		t.Fatalf("CountsFor() error = %v", err)
	}
	if counts.Total != 0 {
		t.Errorf("total after deactivation = %d, want 0", counts.Total)
	}
}
