// Package handlers provides HTTP handlers for the lesson library.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/lessons"
)

// LessonHandlers contains HTTP handlers for the lessons API
type LessonHandlers struct {
	service *lessons.Service
	log     zerolog.Logger
}

// NewLessonHandlers creates a new lesson handlers instance
func NewLessonHandlers(service *lessons.Service, log zerolog.Logger) *LessonHandlers {
	return &LessonHandlers{
		service: service,
		log:     log.With().Str("handler", "lessons").Logger(),
	}
}

// HandleCreateLesson handles POST /api/lessons
func (h *LessonHandlers) HandleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var input lessons.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	lesson, err := h.service.Create(input)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusCreated, lesson)
}

// HandleListLessons handles GET /api/lessons. The status query parameter
// narrows the list; archived lessons only show up when asked for.
func (h *LessonHandlers) HandleListLessons(w http.ResponseWriter, r *http.Request) {
	status := lessons.LessonStatus(r.URL.Query().Get("status"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			domain.WriteError(w, domain.NewValidationError("invalid limit %q", raw))
			return
		}
		limit = n
	}

	lessonList, err := h.service.List(status, limit)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessonList})
}

// HandleGetLesson handles GET /api/lessons/{id}
func (h *LessonHandlers) HandleGetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := lessonID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	lesson, err := h.service.Get(id)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, lesson)
}

// HandleUpdateLesson handles PUT /api/lessons/{id}
func (h *LessonHandlers) HandleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := lessonID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	var input lessons.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		domain.WriteError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	lesson, err := h.service.Update(id, input)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, lesson)
}

// HandleArchiveLesson handles POST /api/lessons/{id}/archive
func (h *LessonHandlers) HandleArchiveLesson(w http.ResponseWriter, r *http.Request) {
	id, err := lessonID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	if err := h.service.Archive(id); err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"archived": id})
}

// HandleValidateLesson handles POST /api/lessons/{id}/validate
func (h *LessonHandlers) HandleValidateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := lessonID(r)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	result, err := h.service.Validate(id)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, result)
}

// HandleRelevantLessons handles GET /api/lessons/relevant. Trade attributes
// come in as query parameters and matching lessons come back ranked.
func (h *LessonHandlers) HandleRelevantLessons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := lessons.Context{
		Setup:    q.Get("setup"),
		Trigger:  q.Get("trigger"),
		Session:  q.Get("session"),
		Emotion:  q.Get("emotion"),
		Location: q.Get("location"),
	}

	matches, err := h.service.Relevant(ctx, lessons.QueryCap)
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"lessons": matches})
}

// HandleListCategories handles GET /api/lessons/categories
func (h *LessonHandlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories()
	if err != nil {
		domain.WriteError(w, err)
		return
	}

	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func lessonID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid lesson id %q", raw)
	}
	return id, nil
}
