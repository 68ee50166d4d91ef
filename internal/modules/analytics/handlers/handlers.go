// Package handlers provides HTTP handlers for performance analytics.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/analytics"
)

// AnalyticsHandlers contains HTTP handlers for the analytics API
type AnalyticsHandlers struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewAnalyticsHandlers creates a new analytics handlers instance
func NewAnalyticsHandlers(service *analytics.Service, log zerolog.Logger) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleSummary handles GET /api/analytics/summary
func (h *AnalyticsHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summarize()
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, summary)
}

// HandleBySetup handles GET /api/analytics/by-setup
func (h *AnalyticsHandlers) HandleBySetup(w http.ResponseWriter, r *http.Request) {
	breakdowns, err := h.service.BySetup()
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"breakdowns": breakdowns})
}

// HandleBySession handles GET /api/analytics/by-session
func (h *AnalyticsHandlers) HandleBySession(w http.ResponseWriter, r *http.Request) {
	breakdowns, err := h.service.BySession()
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"breakdowns": breakdowns})
}
