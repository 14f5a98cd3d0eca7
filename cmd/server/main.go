package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	handler "github.com/pollingx/api/internal/adapters/handler/http"
	redisnotifier "github.com/pollingx/api/internal/adapters/notifier/redis"
	repo "github.com/pollingx/api/internal/adapters/repository/postgres"
	"github.com/pollingx/api/internal/config"
	"github.com/pollingx/api/internal/core/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	pollRepo := repo.NewPollRepository(db)
	voteRepo := repo.NewVoteRepository(db)
	viewRepo := repo.NewViewRepository(db)
	notifier := redisnotifier.NewNotifier(redisClient, logger)

	resultService := services.NewResultService(pollRepo, voteRepo, viewRepo, cfg.StoreTimeout)
	pollService := services.NewPollService(pollRepo, voteRepo, viewRepo, resultService, notifier, logger, cfg.StoreTimeout)
	voteService := services.NewVoteService(pollService, voteRepo, resultService, notifier, logger, cfg.StoreTimeout)

	pollHandler := handler.NewPollHandler(pollService)
	voteHandler := handler.NewVoteHandler(voteService)
	resultHandler := handler.NewResultHandler(pollService, resultService)
	auth := handler.NewAuthMiddleware(cfg.JWTSecret)

	router := handler.NewHandler(pollHandler, voteHandler, resultHandler, auth)
	server := &stdhttp.Server{Addr: cfg.ServerAddr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
