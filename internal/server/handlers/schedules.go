package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/maildue/maildue/internal/requestctx"
	"github.com/maildue/maildue/internal/schedule"
)

type createScheduleRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	To            string `json:"to"`
	CC            string `json:"cc"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	FrequencyType string `json:"frequency_type"`
	FrequencyDays []int  `json:"frequency_days"`
	SendTime      string `json:"send_time"`
	Language      string `json:"language"`
	Active        *bool  `json:"active"`
}

type updateScheduleRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	To            *string `json:"to"`
	CC            *string `json:"cc"`
	Subject       *string `json:"subject"`
	Body          *string `json:"body"`
	FrequencyType *string `json:"frequency_type"`
	FrequencyDays *[]int  `json:"frequency_days"`
	SendTime      *string `json:"send_time"`
	Language      *string `json:"language"`
	Active        *bool   `json:"active"`
}

// ListSchedules returns all schedules, active only unless
// include_inactive=true.
func (h *Handlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	schedules, err := h.schedules.List(r.Context(), includeInactive)
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"schedules": schedules,
		"total":     len(schedules),
	})
}

// CreateSchedule validates and persists a new schedule.
func (h *Handlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON body")
		return
	}

	if req.Language == "" {
		req.Language = h.cfg.Locale.DefaultLanguage
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	sched := &schedule.EmailSchedule{
		Name:          req.Name,
		Description:   req.Description,
		To:            req.To,
		CC:            req.CC,
		Subject:       req.Subject,
		Body:          req.Body,
		FrequencyType: schedule.FrequencyType(req.FrequencyType),
		FrequencyDays: req.FrequencyDays,
		SendTime:      req.SendTime,
		Language:      req.Language,
		Active:        active,
		CreatedBy:     requestctx.Actor(r.Context()),
	}

	if err := h.schedules.Create(r.Context(), sched); err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusCreated, sched)
}

// GetSchedule returns one schedule by id.
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.schedules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, sched)
}

// UpdateSchedule applies a partial update. Instances already generated
// keep the send time they were created with.
func (h *Handlers) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.schedules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON body")
		return
	}

	if req.Name != nil {
		sched.Name = *req.Name
	}
	if req.Description != nil {
		sched.Description = *req.Description
	}
	if req.To != nil {
		sched.To = *req.To
	}
	if req.CC != nil {
		sched.CC = *req.CC
	}
	if req.Subject != nil {
		sched.Subject = *req.Subject
	}
	if req.Body != nil {
		sched.Body = *req.Body
	}
	if req.FrequencyType != nil {
		sched.FrequencyType = schedule.FrequencyType(*req.FrequencyType)
	}
	if req.FrequencyDays != nil {
		sched.FrequencyDays = *req.FrequencyDays
	}
	if req.SendTime != nil {
		sched.SendTime = *req.SendTime
	}
	if req.Language != nil {
		sched.Language = *req.Language
	}
	if req.Active != nil {
		sched.Active = *req.Active
	}

	if err := h.schedules.Update(r.Context(), sched); err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, sched)
}

// DeleteSchedule removes a schedule and all of its instances.
func (h *Handlers) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.schedules.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleSchedule flips the active flag.
func (h *Handlers) ToggleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.schedules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.schedules.SetActive(r.Context(), sched.ID, !sched.Active); err != nil {
		WriteError(w, err)
		return
	}

	sched.Active = !sched.Active
	JSON(w, http.StatusOK, sched)
}

// ListScheduleInstances returns the full instance history for one
// schedule, any status.
func (h *Handlers) ListScheduleInstances(w http.ResponseWriter, r *http.Request) {
	// 404 for unknown schedules rather than an empty history
	sched, err := h.schedules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	instances, err := h.engine.Instances().ListBySchedule(r.Context(), sched.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"instances": instances,
		"total":     len(instances),
	})
}
