package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trade routes
func (h *TradeHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleListTrades)
		r.Post("/", h.HandleCreateTrade)
		r.Get("/export", h.HandleExportTrades)
		r.Get("/{id}", h.HandleGetTrade)
		r.Post("/{id}/close", h.HandleCloseTrade)
		r.Delete("/{id}", h.HandleDeleteTrade)
	})
}
