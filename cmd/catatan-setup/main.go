// Command catatan-setup creates both databases and their tables, then exits.
package main

import (
	"context"
	"os"
	"time"

	"catatan/internal/cli"
	"catatan/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentSetup))
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentSetup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repos, err := cli.OpenRepositories(ctx, cfg.ExpenseDBPath, cfg.StudyDBPath)
	if err != nil {
		logger.Error("Setup failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := repos.Close(); err != nil {
		logger.Warn("Failed to close databases", log.FieldError, err)
	}

	logger.Info("Databases ready",
		"expense_db", cfg.ExpenseDBPath, "expense_table", repos.Expenses.Table(),
		"study_db", cfg.StudyDBPath, "study_table", repos.Study.Table())
}
