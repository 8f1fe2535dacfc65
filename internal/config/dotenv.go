package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port           string
	LogLevel       string
	LogPretty      bool
	AllowedOrigins []string

	DatabaseDriver           string
	DatabaseURL              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int

	MaxPlayers          int
	MinWordsPerCategory int
	RoomIdleMinutes     int
	EvictionSchedule    string
	OracleTTLMinutes    int
	WordsCSVPath        string

	RateLimitPerSecond float64
	RateLimitBurst     int
	PersistQueueSize   int
}

func Default() Config {
	return Config{
		Port:                     "8080",
		LogLevel:                 "info",
		DatabaseDriver:           "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		MaxPlayers:               8,
		MinWordsPerCategory:      1,
		RoomIdleMinutes:          30,
		EvictionSchedule:         "@every 1m",
		OracleTTLMinutes:         10,
		WordsCSVPath:             "data/words.csv",
		RateLimitPerSecond:       5,
		RateLimitBurst:           20,
		PersistQueueSize:         1024,
	}
}

func (c Config) RoomIdleTimeout() time.Duration {
	return time.Duration(c.RoomIdleMinutes) * time.Minute
}

func (c Config) OracleTTL() time.Duration {
	return time.Duration(c.OracleTTLMinutes) * time.Minute
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	if raw := os.Getenv("DATABASE_DRIVER"); raw != "" {
		cfg.DatabaseDriver = strings.ToLower(raw)
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	positiveInt("MAX_PLAYERS", &cfg.MaxPlayers)
	positiveInt("MIN_WORDS_PER_CATEGORY", &cfg.MinWordsPerCategory)
	if raw := os.Getenv("ROOM_IDLE_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RoomIdleMinutes = value
		}
	}
	if raw := os.Getenv("EVICTION_SCHEDULE"); raw != "" {
		cfg.EvictionSchedule = raw
	}
	positiveInt("ORACLE_TTL_MINUTES", &cfg.OracleTTLMinutes)
	if raw, ok := os.LookupEnv("WORDS_CSV_PATH"); ok {
		cfg.WordsCSVPath = raw
	}
	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			cfg.RateLimitPerSecond = value
		}
	}
	positiveInt("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	positiveInt("PERSIST_QUEUE_SIZE", &cfg.PersistQueueSize)
	return cfg
}

func positiveInt(key string, dst *int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dst = value
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
