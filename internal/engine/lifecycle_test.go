package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

// makeInstance generates one pending instance and returns its id.
func makeInstance(t *testing.T, eng *Engine, date time.Time) string {
	t.Helper()
	ctx := context.Background()

	if _, err := eng.GenerateForDate(ctx, date); err != nil {
		t.Fatalf("GenerateForDate() error = %v", err)
	}

	instances, err := eng.Instances().ListForDate(ctx, date.Format(DateFormat))
	if err != nil {
		t.Fatalf("ListForDate() error = %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("ListForDate() = %d instances, want 1", len(instances))
	}
	return instances[0].ID
}

func TestMarkSent(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))
	id := makeInstance(t, eng, now)

	if err := eng.MarkSent(ctx, id, "alice"); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}

	inst, err := eng.Instances().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.Status != StatusSent {
		t.Errorf("status = %v, want sent", inst.Status)
	}
	if inst.SentAt == nil {
		t.Error("sent_at not set")
	}

	// Sending twice is illegal.
	err = eng.MarkSent(ctx, id, "alice")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("MarkSent() on sent instance error = %v, want ErrInvalidState", err)
	}
}

func TestDismiss(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))
	id := makeInstance(t, eng, now)

	if err := eng.Dismiss(ctx, id, "bob", "holiday week"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}

	inst, err := eng.Instances().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.Status != StatusDismissed {
		t.Errorf("status = %v, want dismissed", inst.Status)
	}
	if inst.DismissedBy != "bob" {
		t.Errorf("dismissed_by = %v, want bob", inst.DismissedBy)
	}
	if inst.Notes != "holiday week" {
		t.Errorf("notes = %v, want holiday week", inst.Notes)
	}
	if inst.DismissedAt == nil {
		t.Error("dismissed_at not set")
	}
}

func TestReset(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, now)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))
	id := makeInstance(t, eng, now)

	// Resetting a pending instance is illegal; there is nothing to reset.
	err := eng.Reset(ctx, id, "alice")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Reset() on pending instance error = %v, want ErrInvalidState", err)
	}

	if err := eng.Dismiss(ctx, id, "bob", "skip"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if err := eng.Reset(ctx, id, "alice"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	inst, err := eng.Instances().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.Status != StatusPending {
		t.Errorf("status = %v, want pending", inst.Status)
	}
	if inst.DismissedAt != nil || inst.DismissedBy != "" || inst.Notes != "" {
		t.Error("Reset() did not clear resolution fields")
	}
}

func TestLifecycle_NotFound(t *testing.T) {
	db := testDB(t)
	eng, _ := testEngine(t, db, time.Now())
	ctx := context.Background()

	if err := eng.MarkSent(ctx, "no-such-id", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkSent() error = %v, want ErrNotFound", err)
	}
	if err := eng.Dismiss(ctx, "no-such-id", "alice", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Dismiss() error = %v, want ErrNotFound", err)
	}
	if err := eng.Reset(ctx, "no-such-id", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reset() error = %v, want ErrNotFound", err)
	}
}

func TestReclassifyOverdue(t *testing.T) {
	db := testDB(t)
	morning := time.Date(2026, 8, 10, 8, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, morning)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))
	id := makeInstance(t, eng, morning)

	// Before the send time nothing flips.
	flipped, err := eng.ReclassifyOverdue(ctx)
	if err != nil {
		t.Fatalf("ReclassifyOverdue() error = %v", err)
	}
	if flipped != 0 {
		t.Errorf("ReclassifyOverdue() at 08:00 = %d, want 0", flipped)
	}

	// At exactly the send time the window has not yet strictly passed.
	eng.now = func() time.Time { return time.Date(2026, 8, 10, 9, 0, 0, 0, time.Local) }
	flipped, err = eng.ReclassifyOverdue(ctx)
	if err != nil {
		t.Fatalf("ReclassifyOverdue() error = %v", err)
	}
	if flipped != 0 {
		t.Errorf("ReclassifyOverdue() at 09:00 = %d, want 0", flipped)
	}

	// Past the send time the instance flips, exactly once.
	eng.now = func() time.Time { return time.Date(2026, 8, 10, 9, 1, 0, 0, time.Local) }
	flipped, err = eng.ReclassifyOverdue(ctx)
	if err != nil {
		t.Fatalf("ReclassifyOverdue() error = %v", err)
	}
	if flipped != 1 {
		t.Errorf("ReclassifyOverdue() at 09:01 = %d, want 1", flipped)
	}

	flipped, err = eng.ReclassifyOverdue(ctx)
	if err != nil {
		t.Fatalf("ReclassifyOverdue() rerun error = %v", err)
	}
	if flipped != 0 {
		t.Errorf("ReclassifyOverdue() rerun = %d, want 0 (idempotent)", flipped)
	}

	inst, err := eng.Instances().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.Status != StatusOverdue {
		t.Errorf("status = %v, want overdue", inst.Status)
	}
}

func TestResetThenReclassify(t *testing.T) {
	db := testDB(t)
	afternoon := time.Date(2026, 8, 10, 15, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, afternoon)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))
	id := makeInstance(t, eng, afternoon)

	if err := eng.MarkSent(ctx, id, "alice"); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}
	if err := eng.Reset(ctx, id, "alice"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	// The due moment already passed, so the next sweep flips it straight
	// back to overdue.
	flipped, err := eng.ReclassifyOverdue(ctx)
	if err != nil {
		t.Fatalf("ReclassifyOverdue() error = %v", err)
	}
	if flipped != 1 {
		t.Errorf("ReclassifyOverdue() = %d, want 1", flipped)
	}

	inst, err := eng.Instances().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.Status != StatusOverdue {
		t.Errorf("status after reset+reclassify = %v, want overdue", inst.Status)
	}
}

func TestOverdueCanStillBeSentOrDismissed(t *testing.T) {
	db := testDB(t)
	afternoon := time.Date(2026, 8, 10, 15, 0, 0, 0, time.Local)
	eng, store := testEngine(t, db, afternoon)
	ctx := context.Background()

	createSchedule(t, store, dailySchedule("09:00"))
	id := makeInstance(t, eng, afternoon)

	if _, err := eng.ReclassifyOverdue(ctx); err != nil {
		t.Fatalf("ReclassifyOverdue() error = %v", err)
	}

	inst, err := eng.Instances().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.Status != StatusOverdue {
		t.Fatalf("status = %v, want overdue", inst.Status)
	}

	if err := eng.MarkSent(ctx, id, "alice"); err != nil {
		t.Errorf("MarkSent() on overdue instance error = %v", err)
	}
}
