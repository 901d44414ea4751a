package server

import (
	"net/http"

	"github.com/maildue/maildue/internal/metrics"
	"github.com/maildue/maildue/internal/server/handlers"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

type Middleware func(http.Handler) http.Handler

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(ActorMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)

	if r.server.cfg.Server.MaxBodySize > 0 {
		r.Use(MaxBodySizeMiddleware(r.server.cfg.Server.MaxBodySize))
	}

	if r.server.cfg.Server.CORS.Enabled {
		r.Use(CORSMiddleware(r.server.cfg.Server.CORS))
	}
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	h := handlers.New(r.server.DB(), r.server.Config(), r.server.Schedules(), r.server.Engine())

	r.mux.HandleFunc("GET /", h.Health)
	r.mux.HandleFunc("GET /health", h.Health)
	r.mux.Handle("GET /metrics", metrics.Handler())

	r.mux.HandleFunc("GET /api/schedules", h.ListSchedules)
	r.mux.HandleFunc("POST /api/schedules", h.CreateSchedule)
	r.mux.HandleFunc("GET /api/schedules/{id}", h.GetSchedule)
	r.mux.HandleFunc("PATCH /api/schedules/{id}", h.UpdateSchedule)
	r.mux.HandleFunc("DELETE /api/schedules/{id}", h.DeleteSchedule)
	r.mux.HandleFunc("POST /api/schedules/{id}/toggle", h.ToggleSchedule)
	r.mux.HandleFunc("GET /api/schedules/{id}/instances", h.ListScheduleInstances)

	r.mux.HandleFunc("GET /api/instances/today", h.ListTodayInstances)
	r.mux.HandleFunc("GET /api/instances/counts", h.InstanceCounts)
	r.mux.HandleFunc("POST /api/instances/generate", h.GenerateInstances)
	r.mux.HandleFunc("POST /api/instances/{id}/sent", h.MarkInstanceSent)
	r.mux.HandleFunc("POST /api/instances/{id}/dismiss", h.DismissInstance)
	r.mux.HandleFunc("POST /api/instances/{id}/reset", h.ResetInstance)
	r.mux.HandleFunc("POST /api/instances/{id}/compose", h.ComposeInstance)

	r.mux.HandleFunc("POST /api/preview", h.Preview)

	if r.server.cfg.Notify.Enabled && r.server.Hub() != nil {
		r.mux.Handle("GET /api/notify", r.server.Hub())
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}
