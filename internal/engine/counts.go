package engine

import (
	"context"
	"time"

	"github.com/maildue/maildue/internal/metrics"
)

// CountsFor returns pending and overdue tallies for active schedules on
// the given date. It reclassifies first so an instance whose due moment
// just passed is never still counted as pending.
func (e *Engine) CountsFor(ctx context.Context, date time.Time) (Counts, error) {
	if _, err := e.ReclassifyOverdue(ctx); err != nil {
		return Counts{}, err
	}

	counts, err := e.instances.CountsFor(ctx, date.Format(DateFormat))
	if err != nil {
		return Counts{}, err
	}

	if dateOnly(date).Equal(e.today()) {
		metrics.UpdateDayCounts(counts.Pending, counts.Overdue)
	}

	return counts, nil
}

// CountsToday is CountsFor at the current date.
func (e *Engine) CountsToday(ctx context.Context) (Counts, error) {
	return e.CountsFor(ctx, e.today())
}
