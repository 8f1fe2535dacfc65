package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordrush/internal/config"
	"wordrush/internal/db"
	"wordrush/internal/logger"
	"wordrush/internal/server"
	"wordrush/internal/words"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env")
	}

	var conn *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	} else {
		log.Warn().Msg("DATABASE_URL is not set; rooms will not be persisted")
	}

	store, err := wordStore(context.Background(), conn, cfg.WordsCSVPath)
	if err != nil {
		log.Fatal().Err(err).Msg("word list unavailable")
	}

	srv := server.New(conn, cfg, store)
	if err := srv.Warm(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("word oracle warm-up failed")
	}
	if err := srv.StartScheduler(); err != nil {
		log.Fatal().Err(err).Msg("scheduler failed to start")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("wordrush server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	srv.Close()
	if conn != nil {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log.Info().Msg("server stopped")
}

// wordStore serves words from the database when one is configured, seeding
// an empty table from the CSV file. Without a database the CSV is loaded
// into memory.
func wordStore(ctx context.Context, conn *gorm.DB, csvPath string) (words.Store, error) {
	var entries []words.Entry
	if csvPath != "" {
		loaded, err := words.ReadCSVFile(csvPath)
		switch {
		case err == nil:
			entries = loaded
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", csvPath).Msg("word list file not found")
		default:
			return nil, err
		}
	}
	if conn == nil {
		store := words.NewMemoryStore(entries)
		log.Info().Int("words", store.Len()).Msg("word list loaded into memory")
		return store, nil
	}
	var count int64
	if err := conn.WithContext(ctx).Model(&db.Word{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 && len(entries) > 0 {
		added, err := db.LoadWords(ctx, conn, entries)
		if err != nil {
			return nil, err
		}
		log.Info().Int("words", added).Msg("word table seeded")
	}
	return db.NewWordRepo(conn), nil
}
