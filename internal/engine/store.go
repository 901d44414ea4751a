package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maildue/maildue/internal/database"
)

// InstanceStore handles database operations for schedule instances.
type InstanceStore struct {
	db *database.DB
}

// NewInstanceStore creates a new instance store.
func NewInstanceStore(db *database.DB) *InstanceStore {
	return &InstanceStore{db: db}
}

const instanceColumns = `id, schedule_id, scheduled_date, scheduled_time, status, sent_at, dismissed_at, dismissed_by, notes, created_at`

// Get retrieves an instance by ID.
func (s *InstanceStore) Get(ctx context.Context, instanceID string) (*ScheduleInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM schedule_instances
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, instanceID)

	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting instance: %w", err)
	}

	return inst, nil
}

// ListBySchedule retrieves the full instance history for one schedule,
// newest date first.
func (s *InstanceStore) ListBySchedule(ctx context.Context, scheduleID string) ([]*ScheduleInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM schedule_instances
		WHERE schedule_id = ?
		ORDER BY scheduled_date DESC, scheduled_time DESC
	`

	rows, err := s.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("querying schedule instances: %w", err)
	}
	defer rows.Close()

	return scanInstances(rows)
}

// ListForDate retrieves non-terminal instances of active schedules for
// one date, ordered by send time.
func (s *InstanceStore) ListForDate(ctx context.Context, date string) ([]*ScheduleInstance, error) {
	query := `
		SELECT i.id, i.schedule_id, i.scheduled_date, i.scheduled_time, i.status, i.sent_at, i.dismissed_at, i.dismissed_by, i.notes, i.created_at
		FROM schedule_instances i
		JOIN email_schedules s ON s.id = i.schedule_id
		WHERE s.active = 1
		  AND i.scheduled_date = ?
		  AND i.status IN ('pending', 'overdue')
		ORDER BY i.scheduled_time ASC
	`

	rows, err := s.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("querying actionable instances: %w", err)
	}
	defer rows.Close()

	return scanInstances(rows)
}

// CountsFor tallies pending and overdue instances of active schedules for
// one date.
func (s *InstanceStore) CountsFor(ctx context.Context, date string) (Counts, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN i.status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.status = 'overdue' THEN 1 ELSE 0 END), 0)
		FROM schedule_instances i
		JOIN email_schedules s ON s.id = i.schedule_id
		WHERE s.active = 1 AND i.scheduled_date = ?
	`

	var counts Counts
	err := s.db.QueryRowContext(ctx, query, date).Scan(&counts.Pending, &counts.Overdue)
	if err != nil {
		return Counts{}, fmt.Errorf("counting instances: %w", err)
	}

	counts.Total = counts.Pending + counts.Overdue
	return counts, nil
}

// createIfAbsent inserts an instance for (schedule, date) unless one
// already exists. The existence check and insert share one transaction;
// the table's UNIQUE(schedule_id, scheduled_date) constraint backstops a
// concurrent race, which resolves to a no-op.
func (s *InstanceStore) createIfAbsent(ctx context.Context, scheduleID, date, sendTime string, status InstanceStatus) (bool, error) {
	created := false

	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM schedule_instances WHERE schedule_id = ? AND scheduled_date = ?`,
			scheduleID, date,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking for existing instance: %w", err)
		}
		if exists > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedule_instances (id, schedule_id, scheduled_date, scheduled_time, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			uuid.New().String(),
			scheduleID,
			date,
			sendTime,
			string(status),
			database.Now(),
		)
		if err != nil {
			return fmt.Errorf("inserting instance: %w", database.ClassifyError(err))
		}

		created = true
		return nil
	})
	if err != nil {
		if database.IsUniqueError(err) {
			return false, nil
		}
		return false, err
	}

	return created, nil
}

func scanInstance(row rowScanner) (*ScheduleInstance, error) {
	var inst ScheduleInstance
	var status, createdAt string
	var sentAt, dismissedAt, dismissedBy, notes sql.NullString

	err := row.Scan(
		&inst.ID,
		&inst.ScheduleID,
		&inst.ScheduledDate,
		&inst.ScheduledTime,
		&status,
		&sentAt,
		&dismissedAt,
		&dismissedBy,
		&notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	inst.Status = InstanceStatus(status)
	inst.DismissedBy = dismissedBy.String
	inst.Notes = notes.String

	if sentAt.Valid {
		t, parseErr := time.Parse(time.RFC3339, sentAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing sent_at: %w", parseErr)
		}
		inst.SentAt = &t
	}

	if dismissedAt.Valid {
		t, parseErr := time.Parse(time.RFC3339, dismissedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing dismissed_at: %w", parseErr)
		}
		inst.DismissedAt = &t
	}

	createdAtTime, parseErr := time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	inst.CreatedAt = createdAtTime

	return &inst, nil
}

func scanInstances(rows *sql.Rows) ([]*ScheduleInstance, error) {
	var instances []*ScheduleInstance

	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning instance row: %w", err)
		}
		instances = append(instances, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating instance rows: %w", err)
	}

	return instances, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
