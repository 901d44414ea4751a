package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/maildue/maildue/internal/database"
)

// StateStore persists the generation watermark: the last date for which
// instances were generated. The table holds a single row.
type StateStore struct {
	db *database.DB
}

// NewStateStore creates a new state store.
func NewStateStore(db *database.DB) *StateStore {
	return &StateStore{db: db}
}

// LastGenerated returns the persisted watermark date. The second return is
// false when no watermark has been written yet.
func (s *StateStore) LastGenerated(ctx context.Context) (time.Time, bool, error) {
	var dateStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_generated_date FROM _maildue_generation_state WHERE id = 1`,
	).Scan(&dateStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("reading generation state: %w", err)
	}

	// Parsed in local time so comparisons against today's local midnight
	// line up at the date boundary.
	date, err := time.ParseInLocation(DateFormat, dateStr, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing generation watermark: %w", err)
	}

	return date, true, nil
}

// Advance moves the watermark forward to the given date. An older date is
// ignored so out-of-order writes cannot rewind the watermark; ISO dates
// compare correctly as text.
func (s *StateStore) Advance(ctx context.Context, date time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO _maildue_generation_state (id, last_generated_date, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			last_generated_date = MAX(last_generated_date, excluded.last_generated_date),
			updated_at = excluded.updated_at
	`, date.Format(DateFormat), database.Now())
	if err != nil {
		return fmt.Errorf("advancing generation watermark: %w", err)
	}
	return nil
}

// LatestInstanceDate returns the newest scheduled_date across all
// instances, used to derive a watermark for databases predating the state
// table. The second return is false when no instances exist.
func (s *StateStore) LatestInstanceDate(ctx context.Context) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(scheduled_date) FROM schedule_instances`,
	).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading latest instance date: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}

	date, err := time.ParseInLocation(DateFormat, dateStr.String, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing latest instance date: %w", err)
	}

	return date, true, nil
}
