// Package server provides the HTTP server and routing for the trade journal.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/journalkeeper/tradejournal/internal/config"
	"github.com/journalkeeper/tradejournal/internal/database"
	"github.com/journalkeeper/tradejournal/internal/domain"
	"github.com/journalkeeper/tradejournal/internal/modules/analytics"
	analyticshandlers "github.com/journalkeeper/tradejournal/internal/modules/analytics/handlers"
	"github.com/journalkeeper/tradejournal/internal/modules/chat"
	chathandlers "github.com/journalkeeper/tradejournal/internal/modules/chat/handlers"
	"github.com/journalkeeper/tradejournal/internal/modules/journal"
	journalhandlers "github.com/journalkeeper/tradejournal/internal/modules/journal/handlers"
	"github.com/journalkeeper/tradejournal/internal/modules/lessons"
	lessonhandlers "github.com/journalkeeper/tradejournal/internal/modules/lessons/handlers"
	"github.com/journalkeeper/tradejournal/internal/modules/trades"
	tradehandlers "github.com/journalkeeper/tradejournal/internal/modules/trades/handlers"
	"github.com/journalkeeper/tradejournal/internal/modules/vision"
	"github.com/journalkeeper/tradejournal/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	DB      *database.DB
	Cfg     *config.Config
	Lessons *lessons.Service
	Trades  *trades.Service
	Journal *journal.Repository
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	cfg            *config.Config
	systemHandlers *SystemHandlers

	tradeHandlers     *tradehandlers.TradeHandlers
	lessonHandlers    *lessonhandlers.LessonHandlers
	journalHandlers   *journalhandlers.JournalHandlers
	analyticsHandlers *analyticshandlers.AnalyticsHandlers
	chatHandlers      *chathandlers.ChatHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	log := cfg.Log.With().Str("component", "server").Logger()

	analyticsService := analytics.NewService(cfg.Trades, cfg.Log)
	llmClient := chat.NewLLMClient(cfg.Cfg.LLMBaseURL, cfg.Cfg.LLMAPIKey, cfg.Cfg.LLMModel, cfg.Log)
	visionClient := vision.NewClient(cfg.Cfg.LLMBaseURL, cfg.Cfg.LLMAPIKey, cfg.Cfg.LLMModel, cfg.Log)
	chatService := chat.NewService(cfg.Trades, cfg.Lessons, cfg.Journal, analyticsService, llmClient, cfg.Log)

	s := &Server{
		router:            chi.NewRouter(),
		log:               log,
		db:                cfg.DB,
		cfg:               cfg.Cfg,
		systemHandlers:    NewSystemHandlers(cfg.DB, cfg.Cfg.DataDir, cfg.Log),
		tradeHandlers:     tradehandlers.NewTradeHandlers(cfg.Trades, cfg.Lessons, cfg.Log),
		lessonHandlers:    lessonhandlers.NewLessonHandlers(cfg.Lessons, cfg.Log),
		journalHandlers:   journalhandlers.NewJournalHandlers(cfg.Journal, cfg.Log),
		analyticsHandlers: analyticshandlers.NewAnalyticsHandlers(analyticsService, cfg.Log),
		chatHandlers:      chathandlers.NewChatHandlers(chatService, visionClient, cfg.Log),
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetRevalidationJob registers the lesson revalidation job for manual
// triggering via the API
func (s *Server) SetRevalidationJob(job scheduler.Job) {
	s.systemHandlers.SetRevalidationJob(job)
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.tradeHandlers.RegisterRoutes(r)
		s.lessonHandlers.RegisterRoutes(r)
		s.journalHandlers.RegisterRoutes(r)
		s.analyticsHandlers.RegisterRoutes(r)
		s.chatHandlers.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Post("/jobs/revalidate-lessons", s.systemHandlers.HandleTriggerRevalidation)
		})
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Conn().Ping(); err != nil {
		domain.WriteErrorMessage(w, http.StatusServiceUnavailable, "store_error", "database unreachable")
		return
	}
	domain.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
