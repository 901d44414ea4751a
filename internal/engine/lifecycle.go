package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/events"
	"github.com/maildue/maildue/internal/metrics"
)

// MarkSent records that an operator sent the instance's email. Legal from
// pending and overdue.
func (e *Engine) MarkSent(ctx context.Context, instanceID, actor string) error {
	err := e.transition(ctx, instanceID, []InstanceStatus{StatusPending, StatusOverdue}, `
		UPDATE schedule_instances
		SET status = 'sent', sent_at = ?
		WHERE id = ?
	`, database.Now(), instanceID)
	if err != nil {
		return err
	}

	metrics.RecordTransition(string(StatusSent))
	e.publishTransition(ctx, instanceID, "sent", actor)
	return nil
}

// Dismiss records that an operator skipped the instance on purpose. Legal
// from pending and overdue.
func (e *Engine) Dismiss(ctx context.Context, instanceID, actor, notes string) error {
	err := e.transition(ctx, instanceID, []InstanceStatus{StatusPending, StatusOverdue}, `
		UPDATE schedule_instances
		SET status = 'dismissed', dismissed_at = ?, dismissed_by = ?, notes = ?
		WHERE id = ?
	`, database.Now(), actor, notes, instanceID)
	if err != nil {
		return err
	}

	metrics.RecordTransition(string(StatusDismissed))
	e.publishTransition(ctx, instanceID, "dismissed", actor)
	return nil
}

// Reset returns a terminal instance to pending and clears its resolution
// fields. The next sweep reclassifies it as overdue if its due moment has
// already passed.
func (e *Engine) Reset(ctx context.Context, instanceID, actor string) error {
	err := e.transition(ctx, instanceID, []InstanceStatus{StatusSent, StatusDismissed}, `
		UPDATE schedule_instances
		SET status = 'pending', sent_at = NULL, dismissed_at = NULL, dismissed_by = NULL, notes = NULL
		WHERE id = ?
	`, instanceID)
	if err != nil {
		return err
	}

	metrics.RecordTransition(string(StatusPending))
	e.publishTransition(ctx, instanceID, "reset", actor)
	return nil
}

// transition loads the instance, checks the action is legal from its
// current status and applies the update, all inside one transaction.
func (e *Engine) transition(ctx context.Context, instanceID string, from []InstanceStatus, query string, args ...any) error {
	return e.db.Transaction(ctx, func(tx *database.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM schedule_instances WHERE id = ?`, instanceID,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("loading instance status: %w", err)
		}

		legal := false
		for _, status := range from {
			if InstanceStatus(current) == status {
				legal = true
				break
			}
		}
		if !legal {
			return fmt.Errorf("%w: instance is %s", ErrInvalidState, current)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating instance: %w", database.ClassifyError(err))
		}

		return nil
	})
}

// ReclassifyOverdue flips pending instances whose due moment is strictly
// before now to overdue. Idempotent; runs before every count query and on
// each sweep. Returns the number of instances flipped.
func (e *Engine) ReclassifyOverdue(ctx context.Context) (int, error) {
	now := e.now()
	cutoff := now.Format(DateFormat + " 15:04")

	result, err := e.db.ExecContext(ctx, `
		UPDATE schedule_instances
		SET status = 'overdue'
		WHERE status = 'pending'
		  AND scheduled_date || ' ' || scheduled_time < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclassifying overdue instances: %w", database.ClassifyError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking reclassify result: %w", err)
	}

	if affected > 0 {
		metrics.RecordTransition(string(StatusOverdue))
		e.publishReclassify(ctx, int(affected))
	}

	return int(affected), nil
}

func (e *Engine) publishTransition(ctx context.Context, instanceID, action, actor string) {
	if e.bus == nil {
		return
	}

	event := &events.Event{
		Type:   events.EventTypeInstance,
		Source: "lifecycle",
		Action: action,
		Payload: map[string]any{
			"instance_id": instanceID,
		},
		Metadata: events.EventMetadata{Actor: actor},
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("instance_id", instanceID).
			Str("action", action).
			Msg("Failed to publish lifecycle event")
	}
}

func (e *Engine) publishReclassify(ctx context.Context, count int) {
	if e.bus == nil {
		return
	}

	event := &events.Event{
		Type:   events.EventTypeInstance,
		Source: "lifecycle",
		Action: "overdue",
		Payload: map[string]any{
			"count": count,
		},
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to publish reclassify event")
	}
}
