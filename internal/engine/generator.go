package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maildue/maildue/internal/events"
	"github.com/maildue/maildue/internal/metrics"
	"github.com/maildue/maildue/internal/schedule"
)

// GenerateForDate creates pending instances for every active schedule that
// fires on the given date and does not already have one. Repeated calls
// for the same date are no-ops for existing pairs, so the sweep can run it
// freely. Returns the number of instances created.
func (e *Engine) GenerateForDate(ctx context.Context, date time.Time) (int, error) {
	return e.generate(ctx, date, StatusPending, "live")
}

func (e *Engine) generate(ctx context.Context, date time.Time, status InstanceStatus, mode string) (int, error) {
	date = dateOnly(date)

	schedules, err := e.schedules.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing active schedules: %w", err)
	}

	dateStr := date.Format(DateFormat)
	created := 0

	for _, sched := range schedules {
		if !FiresOn(sched, date) {
			continue
		}

		ok, err := e.instances.createIfAbsent(ctx, sched.ID, dateStr, sched.SendTime, status)
		if err != nil {
			// One bad pair must not stall generation for the rest.
			log.Error().
				Err(err).
				Str("schedule_id", sched.ID).
				Str("date", dateStr).
				Msg("Failed to generate instance")
			continue
		}
		if ok {
			created++
			if status == StatusPending {
				e.publishDue(ctx, sched, date)
			}
		}
	}

	if created > 0 {
		metrics.RecordGenerated(mode, created)
		e.publishGeneration(ctx, dateStr, created, mode)
	}

	// The watermark only tracks dates the regular sweep has covered. An
	// ahead-of-time generation for a future date must not move it, or a
	// later backfill would skip the dates in between.
	if !date.After(e.today()) {
		if err := e.state.Advance(ctx, date); err != nil {
			log.Error().
				Err(err).
				Str("date", dateStr).
				Msg("Failed to advance generation watermark")
		}
	}

	return created, nil
}

// Backfill generates instances for every date between the persisted
// watermark and yesterday, oldest first, creating them directly as
// overdue. The watermark advances after each date so an interrupted run
// resumes where it stopped. A fresh database gets its watermark pinned to
// today instead of fabricating history.
func (e *Engine) Backfill(ctx context.Context) (BackfillResult, error) {
	var result BackfillResult

	today := e.today()

	marker, ok, err := e.state.LastGenerated(ctx)
	if err != nil {
		return result, err
	}
	if !ok {
		marker, ok, err = e.state.LatestInstanceDate(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			if err := e.state.Advance(ctx, today); err != nil {
				return result, err
			}
			return result, nil
		}
	}

	if limit := e.cfg.BackfillLimitDays; limit > 0 {
		floor := today.AddDate(0, 0, -limit)
		if marker.Before(floor) {
			log.Warn().
				Str("watermark", marker.Format(DateFormat)).
				Int("limit_days", limit).
				Msg("Watermark older than backfill limit, clamping")
			marker = floor
		}
	}

	for date := marker.AddDate(0, 0, 1); date.Before(today); date = date.AddDate(0, 0, 1) {
		created, err := e.generate(ctx, date, StatusOverdue, "backfill")
		if err != nil {
			// Keep sweeping; the watermark stays behind this date so the
			// next startup retries it.
			log.Error().
				Err(err).
				Str("date", date.Format(DateFormat)).
				Msg("Backfill failed for date")
			result.Failures++
			continue
		}

		result.DatesProcessed++
		result.InstancesCreated += created
	}

	return result, nil
}

// publishDue enqueues an event scheduled for the instance's due moment.
// The bus dispatches it when the moment arrives and the notifier pushes
// refreshed counts, so badges flip to overdue without waiting for a poll.
func (e *Engine) publishDue(ctx context.Context, sched *schedule.EmailSchedule, date time.Time) {
	if e.bus == nil {
		return
	}

	due, err := schedule.DueAt(date, sched.SendTime)
	if err != nil {
		return
	}

	event := &events.Event{
		Type:      events.EventTypeInstance,
		Source:    "generator",
		Action:    "due",
		ProcessAt: &due,
		Payload: map[string]any{
			"schedule_id": sched.ID,
			"date":        date.Format(DateFormat),
			"time":        sched.SendTime,
		},
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("schedule_id", sched.ID).
			Msg("Failed to publish due event")
	}
}

func (e *Engine) publishGeneration(ctx context.Context, date string, created int, mode string) {
	if e.bus == nil {
		return
	}

	event := &events.Event{
		Type:   events.EventTypeInstance,
		Source: "generator",
		Action: "generated",
		Payload: map[string]any{
			"date":    date,
			"created": created,
			"mode":    mode,
		},
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("date", date).Msg("Failed to publish generation event")
	}
}
