package engine

import (
	"context"
	"testing"
	"time"

	"github.com/maildue/maildue/internal/events"
)

func TestGenerateForDate_Idempotent(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))

	created, err := eng.GenerateForDate(ctx, now)
	if err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}
	if created != 1 {
		t.Fatalf("GenerateForDate() created = %d, want 1", created)
	}

	// Second run for the same date must be a no-op.
	created, err = eng.GenerateForDate(ctx, now)
	if err != nil {
		t.Fatalf("GenerateForDate() second run error = %v", err)
	}
	if created != 0 {
		t.Errorf("GenerateForDate() second run created = %d, want 0", created)
	}

	instances, err := eng.Instances().ListForDate(ctx, now.Format(DateFormat))
	if err != nil {
		t.Fatalf("ListForDate() error = %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("ListForDate() = %d instances, want 1", len(instances))
	}
	if instances[0].Status != StatusPending {
		t.Errorf("instance status = %v, want pending", instances[0].Status)
	}
	if instances[0].ScheduledTime != "09:00" {
		t.Errorf("instance scheduled_time = %v, want 09:00", instances[0].ScheduledTime)
	}
}

func TestGenerateForDate_SkipsInactiveAndNonFiring(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local) // a Monday
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	inactive := dailySchedule("09:00")
	inactive.Name = "inactive"
	inactive.Active = false
	createSchedule(t, store, inactive)

	tuesdayOnly := dailySchedule("09:00")
	tuesdayOnly.Name = "tuesday-only"
	tuesdayOnly.FrequencyType = "weekly"
	tuesdayOnly.FrequencyDays = []int{2}
	createSchedule(t, store, tuesdayOnly)

	created, err := eng.GenerateForDate(ctx, now)
	if err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}
	if created != 0 {
		t.Errorf("GenerateForDate() created = %d, want 0", created)
	}
}

func TestBackfill_MarksMissedDatesOverdue(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))

	// Last generated on the 4th; the service was down the 5th-9th.
	if err := eng.state.Advance(ctx, time.Date(2026, 8, 4, 0, 0, 0, 0, time.Local)); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	result, err := eng.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}

	if result.DatesProcessed != 5 {
		t.Errorf("Backfill() dates = %d, want 5", result.DatesProcessed)
	}
	if result.InstancesCreated != 5 {
		t.Errorf("Backfill() created = %d, want 5", result.InstancesCreated)
	}

	// Every backfilled instance is created directly as overdue.
	for day := 5; day <= 9; day++ {
		date := time.Date(2026, 8, day, 0, 0, 0, 0, time.Local).Format(DateFormat)
		instances, err := eng.Instances().ListForDate(ctx, date)
		if err != nil {
			t.Fatalf("ListForDate(%s) error = %v", date, err)
		}
		if len(instances) != 1 {
			t.Fatalf("ListForDate(%s) = %d instances, want 1", date, len(instances))
		}
		if instances[0].Status != StatusOverdue {
			t.Errorf("backfilled instance for %s status = %v, want overdue", date, instances[0].Status)
		}
	}

	// Watermark advanced to yesterday so a rerun is a no-op.
	marker, ok, err := eng.state.LastGenerated(ctx)
	if err != nil || !ok {
		t.Fatalf("LastGenerated() = %v, %v", ok, err)
	}
	if marker.Format(DateFormat) != "2026-08-09" {
		t.Errorf("watermark = %v, want 2026-08-09", marker.Format(DateFormat))
	}

	result, err = eng.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill() rerun error = %v", err)
	}
	if result.InstancesCreated != 0 {
		t.Errorf("Backfill() rerun created = %d, want 0", result.InstancesCreated)
	}
}

func TestBackfill_FreshDatabasePinsWatermark(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))

	result, err := eng.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if result.DatesProcessed != 0 || result.InstancesCreated != 0 {
		t.Errorf("Backfill() on fresh database = %+v, want zero result", result)
	}

	marker, ok, err := eng.state.LastGenerated(ctx)
	if err != nil || !ok {
		t.Fatalf("LastGenerated() = %v, %v", ok, err)
	}
	if marker.Format(DateFormat) != "2026-08-10" {
		t.Errorf("watermark = %v, want today", marker.Format(DateFormat))
	}
}

func TestBackfill_DerivesWatermarkFromInstances(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	sched := createSchedule(t, store, dailySchedule("09:00"))

	// Instances exist but no watermark row, as for a database predating
	// the state table.
	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_instances (id, schedule_id, scheduled_date, scheduled_time, status, created_at)
		VALUES ('inst-1', ?, '2026-08-08', '09:00', 'sent', ?)
	`, sched.ID, "2026-08-08T09:00:00Z")
	if err != nil {
		t.Fatalf("inserting instance: %v", err)
	}

	result, err := eng.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}

	// Only the 9th was missed.
	if result.DatesProcessed != 1 {
		t.Errorf("Backfill() dates = %d, want 1", result.DatesProcessed)
	}
	if result.InstancesCreated != 1 {
		t.Errorf("Backfill() created = %d, want 1", result.InstancesCreated)
	}
}

func TestGenerateForDate_FutureDateDoesNotAdvanceWatermark(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))

	if _, err := eng.GenerateForDate(ctx, now); err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}

	// Generate ahead of time for next week.
	future := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	created, err := eng.GenerateForDate(ctx, future)
	if err != nil {
		t.Fatalf("GenerateForDate(future) error = %v", err)
	}
	if created != 1 {
		t.Fatalf("GenerateForDate(future) created = %d, want 1", created)
	}

	marker, ok, err := eng.state.LastGenerated(ctx)
	if err != nil || !ok {
		t.Fatalf("LastGenerated() = %v, %v", ok, err)
	}
	if marker.Format(DateFormat) != "2026-08-10" {
		t.Fatalf("watermark = %v, want 2026-08-10", marker.Format(DateFormat))
	}

	// The service is down the 11th-14th and restarts on the 15th; the
	// missed dates must still be backfilled.
	eng.now = func() time.Time { return time.Date(2026, 8, 15, 8, 0, 0, 0, time.Local) }

	result, err := eng.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if result.DatesProcessed != 4 {
		t.Errorf("Backfill() dates = %d, want 4", result.DatesProcessed)
	}
	if result.InstancesCreated != 4 {
		t.Errorf("Backfill() created = %d, want 4", result.InstancesCreated)
	}

	for day := 11; day <= 14; day++ {
		date := time.Date(2026, 8, day, 0, 0, 0, 0, time.Local).Format(DateFormat)
		instances, err := eng.Instances().ListForDate(ctx, date)
		if err != nil {
			t.Fatalf("ListForDate(%s) error = %v", date, err)
		}
		if len(instances) != 1 {
			t.Fatalf("ListForDate(%s) = %d instances, want 1", date, len(instances))
		}
		if instances[0].Status != StatusOverdue {
			t.Errorf("instance for %s status = %v, want overdue", date, instances[0].Status)
		}
	}
}

func TestGenerate_SchedulesDueEventForPendingOnly(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	eng.bus = events.NewEventBus(db, nil)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))

	if _, err := eng.GenerateForDate(ctx, now); err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}

	// Live generation enqueues one event scheduled for the due moment.
	var dueEvents int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE type = 'instance' AND action = 'due' AND process_at IS NOT NULL
	`).Scan(&dueEvents)
	if err != nil {
		t.Fatalf("counting due events: %v", err)
	}
	if dueEvents != 1 {
		t.Fatalf("due events after live generation = %d, want 1", dueEvents)
	}

	// Backfilled instances are already overdue; no due event for them.
	eng.now = func() time.Time { return time.Date(2026, 8, 12, 8, 0, 0, 0, time.Local) }
	result, err := eng.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if result.InstancesCreated != 1 {
		t.Fatalf("Backfill() created = %d, want 1", result.InstancesCreated)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE type = 'instance' AND action = 'due' AND process_at IS NOT NULL
	`).Scan(&dueEvents)
	if err != nil {
		t.Fatalf("counting due events: %v", err)
	}
	if dueEvents != 1 {
		t.Errorf("due events after backfill = %d, want 1", dueEvents)
	}
}

func TestStateStore_AdvanceNeverRewinds(t *testing.T) {
	db := testDB(t)
	eng, _ := testEngine(t, db, time.Now())
	ctx := context.Background()

	newer := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)
	older := time.Date(2026, 8, 5, 0, 0, 0, 0, time.Local)

	if err := eng.state.Advance(ctx, newer); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if err := eng.state.Advance(ctx, older); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	marker, ok, err := eng.state.LastGenerated(ctx)
	if err != nil || !ok {
		t.Fatalf("LastGenerated() = %v, %v", ok, err)
	}
	if marker.Format(DateFormat) != "2026-08-10" {
		t.Errorf("watermark = %v, want 2026-08-10", marker.Format(DateFormat))
	}
}
