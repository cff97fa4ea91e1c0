// Package cli provides the initialization shared by cmd/catatan,
// cmd/catatan-worker and cmd/catatan-setup.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"catatan/internal/amqp"
	"catatan/internal/config"
	"catatan/internal/log"
	"catatan/internal/storage"

	"github.com/joho/godotenv"
)

// SetupLogger creates the process logger at level and makes it the slog default.
// An unknown level falls back to info.
func SetupLogger(level, component string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = component

	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Repositories holds both record repositories and the stores behind them.
type Repositories struct {
	Expenses *storage.ExpenseRepository
	Study    *storage.StudyRepository
	stores   []*storage.Store
}

// OpenRepositories opens the expense and study databases and bootstraps their
// schemas. Paths that resolve to the same file share one store.
func OpenRepositories(ctx context.Context, expensePath, studyPath string) (*Repositories, error) {
	repos := &Repositories{}

	expenseStore, err := storage.Open(expensePath)
	if err != nil {
		return nil, fmt.Errorf("open expense database: %w", err)
	}
	repos.stores = append(repos.stores, expenseStore)

	studyStore := expenseStore
	if !samePath(expensePath, studyPath) {
		studyStore, err = storage.Open(studyPath)
		if err != nil {
			repos.Close()
			return nil, fmt.Errorf("open study database: %w", err)
		}
		repos.stores = append(repos.stores, studyStore)
	}

	if repos.Expenses, err = storage.NewExpenseRepository(ctx, expenseStore); err != nil {
		repos.Close()
		return nil, err
	}
	if repos.Study, err = storage.NewStudyRepository(ctx, studyStore); err != nil {
		repos.Close()
		return nil, err
	}
	return repos, nil
}

// MustOpenRepositories is OpenRepositories for main packages: it exits on failure.
func MustOpenRepositories(ctx context.Context, logger *log.Logger, cfg *config.Config) *Repositories {
	repos, err := OpenRepositories(ctx, cfg.ExpenseDBPath, cfg.StudyDBPath)
	if err != nil {
		logger.Error("Failed to open databases", log.FieldError, err,
			"expense_db", cfg.ExpenseDBPath, "study_db", cfg.StudyDBPath)
		os.Exit(1)
	}
	return repos
}

func (r *Repositories) Close() error {
	var errs []error
	for _, s := range r.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Path(), err))
		}
	}
	return errors.Join(errs...)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

// ConnectAMQP returns a client when AMQP is configured. A failed connection is
// logged and yields nil so the caller can run without events.
func ConnectAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	logger = logger.WithComponent(log.ComponentAMQP)
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP not configured, record events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, record events disabled", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has run.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
