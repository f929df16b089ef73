// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/solitaire/internal/cache"
	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/game"
	"github.com/jason-s-yu/solitaire/internal/handlers"
	"github.com/jason-s-yu/solitaire/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadServer()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	scoring := config.LoadScoring()
	if cfg.ScoringFile != "" {
		s, err := config.LoadScoringFile(cfg.ScoringFile)
		if err != nil {
			logger.Fatalf("scoring: %v", err)
		}
		scoring = s
	}

	// move journal is optional; without Redis the historian has nothing to read
	var journal game.Journal
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		journal = cache.NewRedisJournal(rdb, cfg.QueueName)
		logger.Infof("publishing moves to redis list %s", cfg.QueueName)
	}

	gs := handlers.NewGameServer(scoring, journal, logger)
	logMW := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.Handle("/game/create", logMW(handlers.CreateGameHandler(gs)))
	mux.Handle("/game/state/", logMW(handlers.GameStateHandler(gs)))
	mux.Handle("/game/ws/", logMW(handlers.GameWSHandler(logger, gs)))
	mux.Handle("/game/", logMW(handlers.CloseGameHandler(gs)))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	logger.Info("server stopped")
}
