// cmd/historian is an asynchronous historian service that pops move records from a Redis
// queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/solitaire/internal/cache"
	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/database"
	"github.com/jason-s-yu/solitaire/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	srv := config.LoadServer()

	logger := logrus.New()
	logger.SetLevel(srv.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.DB.Close()
	if err := database.EnsureSchema(ctx, database.DB); err != nil {
		logger.Fatalf("database: %v", err)
	}

	addr := srv.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := cache.ConnectRedis(addr, srv.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	hc := config.LoadHistorian()
	cfg := historian.DefaultConfig()
	cfg.BatchSize = hc.BatchSize
	cfg.FlushDelay = hc.FlushDelay
	cfg.Inactivity = hc.Inactivity

	hs := historian.NewService(
		cache.NewRedisJournal(rdb, srv.QueueName),
		database.MoveStore{Pool: database.DB},
		cfg,
		logger.WithField("service", "historian"),
	)
	hs.Run(ctx)
	logger.Info("historian shutdown complete")
}
