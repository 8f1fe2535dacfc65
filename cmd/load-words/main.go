package main

import (
	"context"
	"flag"

	"wordrush/internal/config"
	"wordrush/internal/db"
	"wordrush/internal/logger"
	"wordrush/internal/words"

	"github.com/rs/zerolog/log"
)

func main() {
	envErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	filePath := flag.String("file", cfg.WordsCSVPath, "path to words csv (category,word)")
	flag.Parse()

	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	entries, err := words.ReadCSVFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *filePath).Msg("failed to read words")
	}
	added, err := db.LoadWords(context.Background(), conn, entries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load words")
	}
	log.Info().Int("read", len(entries)).Int("added", added).Msg("words loaded")
}
