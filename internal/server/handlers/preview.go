package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/placeholder"
	"github.com/maildue/maildue/internal/requestctx"
)

type previewRequest struct {
	Template string `json:"template"`
	Date     string `json:"date"`
	Language string `json:"language"`
}

// Preview renders a template for an arbitrary date and language so the
// editor can show live placeholder output.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON body")
		return
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

	lang := req.Language
	if lang == "" {
		lang = h.cfg.Locale.DefaultLanguage
	}

	rendered := placeholder.Render(req.Template, date, lang, placeholder.Context{
		Department: h.cfg.Locale.Department,
		UserName:   requestctx.Actor(r.Context()),
	})

	JSON(w, http.StatusOK, map[string]any{
		"rendered": rendered,
	})
}
