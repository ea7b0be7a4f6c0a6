package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"myfinance/internal/amqp"
	"myfinance/internal/config"
	"myfinance/internal/log"
	"myfinance/internal/sheets"
	gsheet "myfinance/internal/sheets/google"
	"myfinance/internal/sheets/memory"
	"myfinance/internal/storage"
	"myfinance/internal/worker"
)

func main() {
	_ = godotenv.Load()

	log.Setup()
	logger := log.WithComponent(log.ComponentWorker)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the export worker")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a spreadsheet the worker still drains the queue, appending to
	// an in-process sink. Useful for local development against RabbitMQ.
	var appender sheets.RowAppender
	if cfg.ExportSpreadsheetID != "" {
		client, err := gsheet.NewClient(ctx, cfg.ExportSpreadsheetID, cfg.ExportSheetName)
		if err != nil {
			logger.Error("failed to initialize sheets client", log.FieldError, err)
			os.Exit(1)
		}
		appender = client
		logger.Info("sheets export enabled",
			"spreadsheet_id", cfg.ExportSpreadsheetID,
			"sheet", cfg.ExportSheetName)
	} else {
		appender = memory.New()
		logger.Warn("EXPORT_SPREADSHEET_ID not set, exporting to in-memory sink")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to broker", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(store, appender)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("export worker consuming",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	if err := exportWorker.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("export worker stopped")
}
