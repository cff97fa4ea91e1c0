package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"catatan/internal/cache"
	"catatan/internal/cli"
	apphttp "catatan/internal/http"
	"catatan/internal/log"
	"catatan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp))
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	repos := cli.MustOpenRepositories(context.Background(), logger, cfg)
	defer repos.Close()

	var publisher services.EventPublisher
	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	expenseCache := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
	studyCache := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)

	cacheManager := cache.NewManager()
	cacheManager.Register(expenseCache)
	cacheManager.Register(studyCache)
	if err := cacheManager.Start(cfg.CacheCleanup); err != nil {
		logger.Error("Failed to schedule cache cleanup", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, logger,
		services.NewExpenseService(repos.Expenses, expenseCache, publisher),
		services.NewStudyService(repos.Study, studyCache, publisher),
	)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
		cacheManager.Stop(ctx)
	})

	logger.Info("Starting catatan server",
		"port", cfg.Port,
		"expense_db", cfg.ExpenseDBPath,
		"study_db", cfg.StudyDBPath,
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
