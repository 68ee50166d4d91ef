package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all chat routes
func (h *ChatHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/", h.HandleMessage)
		r.Get("/ws", h.HandleWebSocket)
		r.Post("/screenshot", h.HandleScreenshot)
	})
}
