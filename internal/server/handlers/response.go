package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/schedule"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func ErrorWithDetails(w http.ResponseWriter, status int, code string, message string, details any) {
	JSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, "INVALID_STATE", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// WriteError maps domain errors onto HTTP statuses. Busy-database errors
// surface as 503 so callers know the operation is safe to retry.
func WriteError(w http.ResponseWriter, err error) {
	var validationErr *schedule.ValidationError
	if errors.As(err, &validationErr) {
		ErrorWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error(), map[string]string{
			"field": validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, engine.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, engine.ErrInvalidState):
		Conflict(w, err.Error())
	case database.IsBusyError(err):
		Error(w, http.StatusServiceUnavailable, "STORAGE_BUSY", "storage is busy, retry the request")
	case database.IsUniqueError(err):
		Error(w, http.StatusConflict, "DUPLICATE", err.Error())
	default:
		InternalError(w, err.Error())
	}
}
