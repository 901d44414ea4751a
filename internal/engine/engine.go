package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/maildue/maildue/internal/config"
	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/events"
	"github.com/maildue/maildue/internal/metrics"
	"github.com/maildue/maildue/internal/schedule"
)

// Engine drives instance generation and lifecycle upkeep. A cron runner
// sweeps every configured interval: reclassifying pending instances whose
// due moment passed and generating instances for the current date, which
// also covers the midnight rollover.
type Engine struct {
	db        *database.DB
	schedules *schedule.Store
	instances *InstanceStore
	state     *StateStore
	bus       *events.EventBus
	cfg       *config.EngineConfig

	cron    *cron.Cron
	mu      sync.Mutex
	started bool

	// now is swappable in tests.
	now func() time.Time
}

// New creates an engine over the given stores.
func New(db *database.DB, schedules *schedule.Store, bus *events.EventBus, cfg *config.EngineConfig) *Engine {
	return &Engine{
		db:        db,
		schedules: schedules,
		instances: NewInstanceStore(db),
		state:     NewStateStore(db),
		bus:       bus,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Instances exposes the instance store for read paths.
func (e *Engine) Instances() *InstanceStore {
	return e.instances
}

// Start catches up missed dates, generates today's instances and starts
// the background sweep.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if e.cfg.BackfillOnStart {
		result, err := e.Backfill(ctx)
		if err != nil {
			return fmt.Errorf("backfilling missed dates: %w", err)
		}
		if result.DatesProcessed > 0 {
			log.Info().
				Int("dates", result.DatesProcessed).
				Int("created", result.InstancesCreated).
				Int("failures", result.Failures).
				Msg("Backfill complete")
		}
	}

	if _, err := e.GenerateForDate(ctx, e.today()); err != nil {
		return fmt.Errorf("generating today's instances: %w", err)
	}

	if _, err := e.ReclassifyOverdue(ctx); err != nil {
		return fmt.Errorf("reclassifying overdue instances: %w", err)
	}

	e.cron = cron.New()
	spec := fmt.Sprintf("@every %s", e.cfg.SweepInterval)
	if _, err := e.cron.AddFunc(spec, e.sweep); err != nil {
		return fmt.Errorf("registering sweep entry: %w", err)
	}
	e.cron.Start()
	e.started = true

	log.Info().
		Dur("interval", e.cfg.SweepInterval).
		Msg("Engine started")

	return nil
}

// Stop halts the background sweep and waits for a running sweep to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}

	stopCtx := e.cron.Stop()
	<-stopCtx.Done()
	e.started = false

	log.Info().Msg("Engine stopped")
}

func (e *Engine) sweep() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.SweepInterval)
	defer cancel()

	if _, err := e.ReclassifyOverdue(ctx); err != nil {
		log.Error().Err(err).Msg("Sweep reclassify failed")
	}

	if _, err := e.GenerateForDate(ctx, e.today()); err != nil {
		log.Error().Err(err).Msg("Sweep generation failed")
	}

	metrics.RecordSweep(time.Since(start))
}

// today returns the current date with the time component stripped, in
// local time.
func (e *Engine) today() time.Time {
	return dateOnly(e.now())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
