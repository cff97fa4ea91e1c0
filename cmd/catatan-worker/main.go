package main

import (
	"context"
	"errors"
	"os"
	"time"

	"catatan/internal/amqp"
	"catatan/internal/cli"
	"catatan/internal/config"
	"catatan/internal/log"
	"catatan/internal/sheets"
	gsheet "catatan/internal/sheets/google"
	mem "catatan/internal/sheets/memory"
	"catatan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker))
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	logger.Info("Starting catatan-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repos := cli.MustOpenRepositories(context.Background(), logger, cfg)
	defer repos.Close()

	writer := tableWriter(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(writer,
		worker.Export{App: amqp.AppExpense, Sheet: sheets.ExpenseSheet, Source: repos.Expenses},
		worker.Export{App: amqp.AppStudy, Sheet: sheets.StudySheet, Source: repos.Study},
	)

	consumed := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		select {
		case <-consumed:
		case <-ctx.Done():
		}
	})

	// Catch up on events missed while the worker was down.
	if err := exporter.ExportAll(ctx); err != nil {
		logger.Error("Startup export incomplete", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	go func() {
		defer close(consumed)
		err := amqpClient.ConsumeRecordEvents(ctx, exporter.HandleRecordEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// tableWriter selects Google Sheets when a spreadsheet is configured and an
// in-memory sink otherwise.
func tableWriter(logger *log.Logger, cfg *config.Config) sheets.TableWriter {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, exports kept in memory")
		return mem.New()
	}

	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}
