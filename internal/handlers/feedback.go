package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/encryptoo/encryptoo/internal/feedback"
	"github.com/encryptoo/encryptoo/internal/metrics"
	"github.com/encryptoo/encryptoo/internal/middleware"
	"github.com/encryptoo/encryptoo/internal/web"
)

// ==========================
// Feedback Handler
// ==========================
type FeedbackHandler struct {
	Store *feedback.Store
}

// Save appends a feedback record. The session is optional; when present the
// record is stamped with the submitting username.
func (h *FeedbackHandler) Save(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		metrics.FeedbackTotal.WithLabelValues("error").Inc()
		JSONStatus(w, http.StatusBadRequest, "error", "invalid JSON body")
		return
	}

	if _, err := h.Store.Append(fields, middleware.Username(r)); err != nil {
		slog.Error("save feedback", "error", err)
		metrics.FeedbackTotal.WithLabelValues("error").Inc()
		JSONStatus(w, http.StatusInternalServerError, "error", "could not save feedback")
		return
	}

	metrics.FeedbackTotal.WithLabelValues("ok").Inc()
	JSONStatus(w, http.StatusOK, "success", "Feedback saved successfully")
}

// View renders all feedback records for the admin page.
func (h *FeedbackHandler) View(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "feedback.html", middleware.Username(r), map[string]any{
		"Records": h.Store.Read(),
	})
}
