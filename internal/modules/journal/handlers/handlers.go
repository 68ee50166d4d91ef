// Package handlers provides HTTP handlers for the daily journal.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/journal"
)

// JournalHandlers contains HTTP handlers for the journal API
type JournalHandlers struct {
	repo *journal.Repository
	log  zerolog.Logger
}

// NewJournalHandlers creates a new journal handlers instance
func NewJournalHandlers(repo *journal.Repository, log zerolog.Logger) *JournalHandlers {
	return &JournalHandlers{
		repo: repo,
		log:  log.With().Str("handler", "journal").Logger(),
	}
}

// HandleUpsertOutlook handles PUT /api/journal/{date}/outlook
func (h *JournalHandlers) HandleUpsertOutlook(w http.ResponseWriter, r *http.Request) {
	var outlook journal.Outlook
	if err := json.NewDecoder(r.Body).Decode(&outlook); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	outlook.Date = chi.URLParam(r, "date")

	saved, err := h.repo.UpsertOutlook(outlook)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, saved)
}

// HandleGetOutlook handles GET /api/journal/{date}/outlook
func (h *JournalHandlers) HandleGetOutlook(w http.ResponseWriter, r *http.Request) {
	outlook, err := h.repo.GetOutlook(chi.URLParam(r, "date"))
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, outlook)
}

// HandleUpsertReview handles PUT /api/journal/{date}/review
func (h *JournalHandlers) HandleUpsertReview(w http.ResponseWriter, r *http.Request) {
	var review journal.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	review.Date = chi.URLParam(r, "date")

	saved, err := h.repo.UpsertReview(review)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, saved)
}

// HandleGetReview handles GET /api/journal/{date}/review
func (h *JournalHandlers) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.repo.GetReview(chi.URLParam(r, "date"))
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, review)
}

// HandleRecentDays handles GET /api/journal/recent
func (h *JournalHandlers) HandleRecentDays(w http.ResponseWriter, r *http.Request) {
	limit := 7
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			domain.WriteError(w, domain.NewValidationError("invalid limit %q", raw))
			return
		}
		limit = n
	}

	days, err := h.repo.RecentDays(limit)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}
