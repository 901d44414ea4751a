// Package server wires the HTTP API, middleware chain and background
// services together.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maildue/maildue/internal/config"
	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/events"
	"github.com/maildue/maildue/internal/metrics"
	"github.com/maildue/maildue/internal/notify"
	"github.com/maildue/maildue/internal/schedule"
)

type Server struct {
	cfg        *config.Config
	db         *database.DB
	bus        *events.EventBus
	schedules  *schedule.Store
	engine     *engine.Engine
	hub        *notify.Hub
	httpServer *http.Server
	router     *Router
}

// New assembles the service: event bus, schedule store, engine and
// optional notify hub, plus the HTTP stack on top.
func New(cfg *config.Config, db *database.DB) *Server {
	srv := &Server{
		cfg: cfg,
		db:  db,
	}

	srv.bus = events.NewEventBus(db, &events.EventBusConfig{
		Retention:       cfg.Events.Retention,
		ProcessInterval: cfg.Events.ProcessInterval,
		CleanupInterval: cfg.Events.CleanupInterval,
	})

	srv.schedules = schedule.NewStore(db, srv.bus)
	srv.engine = engine.New(db, srv.schedules, srv.bus, &cfg.Engine)

	if cfg.Notify.Enabled {
		srv.hub = notify.NewHub(srv.engine, &cfg.Notify)
	}

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv
}

func (s *Server) Start(ctx context.Context) error {
	log.Info().
		Str("addr", s.cfg.Server.Address()).
		Msg("Starting server")

	s.bus.Start(ctx, &events.EventBusConfig{
		Retention:       s.cfg.Events.Retention,
		ProcessInterval: s.cfg.Events.ProcessInterval,
		CleanupInterval: s.cfg.Events.CleanupInterval,
	})

	if s.hub != nil {
		s.hub.Start(s.bus)
		log.Info().Msg("Notify hub started")
	}

	if err := s.engine.Start(ctx); err != nil {
		return err
	}

	go s.collectDBStats(ctx)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server")

	s.engine.Stop()

	if s.hub != nil {
		s.hub.Stop()
		log.Info().Msg("Notify hub stopped")
	}

	s.bus.Stop()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) collectDBStats(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := s.db.Stats()
			metrics.UpdateDBStats(stats.OpenConnections, stats.InUse)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) DB() *database.DB {
	return s.db
}

func (s *Server) Config() *config.Config {
	return s.cfg
}

func (s *Server) Engine() *engine.Engine {
	return s.engine
}

func (s *Server) Schedules() *schedule.Store {
	return s.schedules
}

func (s *Server) Hub() *notify.Hub {
	return s.hub
}
