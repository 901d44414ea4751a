package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/events"
)

// ErrNotFound is returned for operations addressed to a schedule id that
// does not exist.
var ErrNotFound = errors.New("schedule not found")

// Store handles database operations for email schedules. Mutations publish
// to the event bus (when configured) so dependent views can refresh.
type Store struct {
	db  *database.DB
	bus *events.EventBus
}

// NewStore creates a new schedule store.
func NewStore(db *database.DB, bus *events.EventBus) *Store {
	return &Store{db: db, bus: bus}
}

const scheduleColumns = `id, name, description, recipients_to, recipients_cc, subject_template, body_template, frequency_type, frequency_days, send_time, language, active, created_at, created_by`

// Create validates and inserts a new schedule.
func (s *Store) Create(ctx context.Context, sched *EmailSchedule) error {
	if err := Validate(sched); err != nil {
		return err
	}

	if sched.ID == "" {
		sched.ID = uuid.New().String()
	}
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = time.Now().UTC()
	}

	daysJSON, err := json.Marshal(sched.FrequencyDays)
	if err != nil {
		return fmt.Errorf("marshaling frequency days: %w", err)
	}

	query := `
		INSERT INTO email_schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		sched.ID,
		sched.Name,
		sched.Description,
		sched.To,
		sched.CC,
		sched.Subject,
		sched.Body,
		string(sched.FrequencyType),
		string(daysJSON),
		sched.SendTime,
		sched.Language,
		boolToInt(sched.Active),
		sched.CreatedAt.UTC().Format(time.RFC3339),
		sched.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("inserting schedule: %w", database.ClassifyError(err))
	}

	s.publish(ctx, "created", sched.ID, sched.CreatedBy)
	return nil
}

// Update validates and updates an existing schedule. Already-generated
// instances keep their copied send time; edits apply to future generation
// only.
func (s *Store) Update(ctx context.Context, sched *EmailSchedule) error {
	if err := Validate(sched); err != nil {
		return err
	}

	daysJSON, err := json.Marshal(sched.FrequencyDays)
	if err != nil {
		return fmt.Errorf("marshaling frequency days: %w", err)
	}

	query := `
		UPDATE email_schedules
		SET name = ?, description = ?, recipients_to = ?, recipients_cc = ?, subject_template = ?, body_template = ?, frequency_type = ?, frequency_days = ?, send_time = ?, language = ?, active = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		sched.Name,
		sched.Description,
		sched.To,
		sched.CC,
		sched.Subject,
		sched.Body,
		string(sched.FrequencyType),
		string(daysJSON),
		sched.SendTime,
		sched.Language,
		boolToInt(sched.Active),
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", database.ClassifyError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, "updated", sched.ID, "")
	return nil
}

// SetActive toggles a schedule's active flag.
func (s *Store) SetActive(ctx context.Context, scheduleID string, active bool) error {
	query := `UPDATE email_schedules SET active = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, boolToInt(active), scheduleID)
	if err != nil {
		return fmt.Errorf("toggling schedule: %w", database.ClassifyError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking toggle result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, "toggled", scheduleID, "")
	return nil
}

// Delete removes a schedule. Instances cascade with it so no instance row
// is ever left pointing at a missing schedule.
func (s *Store) Delete(ctx context.Context, scheduleID string) error {
	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM email_schedules WHERE id = ?`, scheduleID)
		if err != nil {
			return fmt.Errorf("deleting schedule: %w", database.ClassifyError(err))
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking delete result: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		// Explicit cascade in case the connection was opened without
		// foreign_keys enabled
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_instances WHERE schedule_id = ?`, scheduleID); err != nil {
			return fmt.Errorf("deleting schedule instances: %w", database.ClassifyError(err))
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, "deleted", scheduleID, "")
	return nil
}

// Get retrieves a schedule by ID.
func (s *Store) Get(ctx context.Context, scheduleID string) (*EmailSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM email_schedules
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, scheduleID)

	sched, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting schedule: %w", err)
	}

	return sched, nil
}

// List retrieves schedules, optionally including inactive ones.
func (s *Store) List(ctx context.Context, includeInactive bool) ([]*EmailSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM email_schedules
	`
	if !includeInactive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ListActive retrieves all active schedules.
func (s *Store) ListActive(ctx context.Context) ([]*EmailSchedule, error) {
	return s.List(ctx, false)
}

func (s *Store) publish(ctx context.Context, action, scheduleID, actor string) {
	if s.bus == nil {
		return
	}

	event := &events.Event{
		Type:   events.EventTypeSchedule,
		Source: "store",
		Action: action,
		Payload: map[string]any{
			"schedule_id": scheduleID,
		},
		Metadata: events.EventMetadata{Actor: actor},
	}

	if err := s.bus.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("schedule_id", scheduleID).
			Str("action", action).
			Msg("Failed to publish schedule event")
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*EmailSchedule, error) {
	var sched EmailSchedule
	var frequencyType, daysJSON, createdAt string
	var active int

	err := row.Scan(
		&sched.ID,
		&sched.Name,
		&sched.Description,
		&sched.To,
		&sched.CC,
		&sched.Subject,
		&sched.Body,
		&frequencyType,
		&daysJSON,
		&sched.SendTime,
		&sched.Language,
		&active,
		&createdAt,
		&sched.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if unmarshalErr := json.Unmarshal([]byte(daysJSON), &sched.FrequencyDays); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshaling frequency days: %w", unmarshalErr)
	}

	sched.FrequencyType = FrequencyType(frequencyType)
	sched.Active = active == 1

	createdAtTime, parseErr := time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	sched.CreatedAt = createdAtTime

	return &sched, nil
}

func scanSchedules(rows *sql.Rows) ([]*EmailSchedule, error) {
	var schedules []*EmailSchedule

	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		schedules = append(schedules, sched)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule rows: %w", err)
	}

	return schedules, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
