// Package handlers implements the HTTP API for schedules and instances.
package handlers

import (
	"net/http"

	"github.com/maildue/maildue/internal/config"
	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/schedule"
)

// HandlerFunc is the signature all route handlers share.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// Handlers bundles the stores and engine the API routes operate on.
type Handlers struct {
	db        *database.DB
	cfg       *config.Config
	schedules *schedule.Store
	engine    *engine.Engine
}

// New creates the handler set.
func New(db *database.DB, cfg *config.Config, schedules *schedule.Store, eng *engine.Engine) *Handlers {
	return &Handlers{
		db:        db,
		cfg:       cfg,
		schedules: schedules,
		engine:    eng,
	}
}
