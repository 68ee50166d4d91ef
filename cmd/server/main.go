// Package main is the entry point for the trade journal server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/journalkeeper/tradejournal/internal/config"
	"github.com/journalkeeper/tradejournal/internal/database"
	"github.com/journalkeeper/tradejournal/internal/modules/journal"
	"github.com/journalkeeper/tradejournal/internal/modules/lessons"
	"github.com/journalkeeper/tradejournal/internal/modules/trades"
	"github.com/journalkeeper/tradejournal/internal/scheduler"
	"github.com/journalkeeper/tradejournal/internal/server"
	"github.com/journalkeeper/tradejournal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting trade journal")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	tradeRepo := trades.NewTradeRepository(db.Conn(), log)
	tradeService := trades.NewService(tradeRepo, log)
	lessonRepo := lessons.NewLessonRepository(db.Conn(), log)
	lessonService := lessons.NewService(lessonRepo, tradeRepo, log)
	journalRepo := journal.NewRepository(db.Conn(), log)

	srv := server.New(server.Config{
		Log:     log,
		DB:      db,
		Cfg:     cfg,
		Lessons: lessonService,
		Trades:  tradeService,
		Journal: journalRepo,
	})

	sched := scheduler.New(log)
	revalidateJob := scheduler.NewRevalidateLessonsJob(lessonService, log)
	if err := sched.AddJob("@daily", revalidateJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register revalidation job")
	}
	srv.SetRevalidationJob(revalidateJob)
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
