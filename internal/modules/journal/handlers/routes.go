package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all journal routes
func (h *JournalHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/journal", func(r chi.Router) {
		r.Get("/recent", h.HandleRecentDays)
		r.Route("/{date}", func(r chi.Router) {
			r.Get("/outlook", h.HandleGetOutlook)
			r.Put("/outlook", h.HandleUpsertOutlook)
			r.Get("/review", h.HandleGetReview)
			r.Put("/review", h.HandleUpsertReview)
		})
	})
}
