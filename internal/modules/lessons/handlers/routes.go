package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all lesson routes
func (h *LessonHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/lessons", func(r chi.Router) {
		r.Get("/", h.HandleListLessons)
		r.Post("/", h.HandleCreateLesson)
		r.Get("/relevant", h.HandleRelevantLessons)
		r.Get("/categories", h.HandleListCategories)
		r.Get("/{id}", h.HandleGetLesson)
		r.Put("/{id}", h.HandleUpdateLesson)
		r.Post("/{id}/archive", h.HandleArchiveLesson)
		r.Post("/{id}/validate", h.HandleValidateLesson)
	})
}
