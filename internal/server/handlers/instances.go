package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/placeholder"
	"github.com/maildue/maildue/internal/requestctx"
)

// ListTodayInstances returns today's non-terminal instances across active
// schedules. Reclassifies first so a stale pending item is never shown as
// merely pending after its window passed.
func (h *Handlers) ListTodayInstances(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.ReclassifyOverdue(r.Context()); err != nil {
		WriteError(w, err)
		return
	}

	today := time.Now().Format(engine.DateFormat)
	instances, err := h.engine.Instances().ListForDate(r.Context(), today)
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"date":      today,
		"instances": instances,
		"total":     len(instances),
	})
}

// InstanceCounts returns pending/overdue tallies for a date, defaulting
// to today.
func (h *Handlers) InstanceCounts(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(engine.DateFormat, raw, time.Local)
		if err != nil {
			BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	counts, err := h.engine.CountsFor(r.Context(), date)
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"date":   date.Format(engine.DateFormat),
		"counts": counts,
	})
}

type generateRequest struct {
	Date string `json:"date"`
}

// GenerateInstances creates instances for a date (default today).
// Idempotent; already-covered (schedule, date) pairs are skipped.
func (h *Handlers) GenerateInstances(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "Invalid JSON body")
			return
		}
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation(engine.DateFormat, req.Date, time.Local)
		if err != nil {
			BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	created, err := h.engine.GenerateForDate(r.Context(), date)
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"date":    date.Format(engine.DateFormat),
		"created": created,
	})
}

// MarkInstanceSent confirms the operator sent the email.
func (h *Handlers) MarkInstanceSent(w http.ResponseWriter, r *http.Request) {
	actor := requestctx.Actor(r.Context())

	if err := h.engine.MarkSent(r.Context(), r.PathValue("id"), actor); err != nil {
		WriteError(w, err)
		return
	}

	h.respondInstance(w, r)
}

type dismissRequest struct {
	Notes string `json:"notes"`
}

// DismissInstance skips an instance on purpose, with optional notes.
func (h *Handlers) DismissInstance(w http.ResponseWriter, r *http.Request) {
	var req dismissRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "Invalid JSON body")
			return
		}
	}

	actor := requestctx.Actor(r.Context())

	if err := h.engine.Dismiss(r.Context(), r.PathValue("id"), actor, req.Notes); err != nil {
		WriteError(w, err)
		return
	}

	h.respondInstance(w, r)
}

// ResetInstance returns a sent or dismissed instance to pending.
func (h *Handlers) ResetInstance(w http.ResponseWriter, r *http.Request) {
	actor := requestctx.Actor(r.Context())

	if err := h.engine.Reset(r.Context(), r.PathValue("id"), actor); err != nil {
		WriteError(w, err)
		return
	}

	h.respondInstance(w, r)
}

// ComposeInstance renders the filled {to, cc, subject, body} hand-off for
// an external mail client. Composing never marks the instance sent; that
// stays an explicit operator action.
func (h *Handlers) ComposeInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := h.engine.Instances().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	sched, err := h.schedules.Get(r.Context(), inst.ScheduleID)
	if err != nil {
		WriteError(w, err)
		return
	}

	msg, err := placeholder.BuildMessage(sched, inst, placeholder.Context{
		Department: h.cfg.Locale.Department,
		UserName:   requestctx.Actor(r.Context()),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, msg)
}

func (h *Handlers) respondInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := h.engine.Instances().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, inst)
}
