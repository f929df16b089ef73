// internal/config/env.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Server holds process-level settings for cmd/server and cmd/historian.
type Server struct {
	Port        string
	RedisAddr   string // empty disables the move journal
	RedisDB     int
	QueueName   string
	LogLevel    logrus.Level
	ScoringFile string
}

// DefaultQueueName is the Redis list used for move journal records.
const DefaultQueueName = "solitaire_moves"

// LoadServer reads server settings from the environment:
//   - PORT (default "8080")
//   - REDIS_ADDR (optional)
//   - REDIS_DB (default 0)
//   - HISTORIAN_QUEUE_NAME (default "solitaire_moves")
//   - LOG_LEVEL (default "info")
//   - SCORING_FILE (optional JSON scoring overrides)
func LoadServer() Server {
	lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	return Server{
		Port:        getEnv("PORT", "8080"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		QueueName:   getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName),
		LogLevel:    lvl,
		ScoringFile: os.Getenv("SCORING_FILE"),
	}
}

// Historian holds the batching and inactivity settings of cmd/historian.
type Historian struct {
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration
}

// LoadHistorian reads historian settings from the environment:
//   - HISTORIAN_BATCH_SIZE (default 20)
//   - HISTORIAN_FLUSH_MS (default 500)
//   - GAME_INACTIVITY_TIMEOUT_SEC (default 600)
func LoadHistorian() Historian {
	return Historian{
		BatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		Inactivity: time.Duration(getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
