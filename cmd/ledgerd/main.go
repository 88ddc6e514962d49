package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/klauslube/raro-ledger/internal/config"
	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/handlers"
	"github.com/klauslube/raro-ledger/internal/notifications"
	"github.com/klauslube/raro-ledger/internal/scheduler"
	"github.com/klauslube/raro-ledger/internal/service"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting ledger api",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	var notifier notifications.Notifier = notifications.NopNotifier{}
	if cfg.App.NotifyWebhookURL != "" {
		notifier = notifications.NewWebhookNotifier(cfg.App.NotifyWebhookURL, logger)
	}

	sched := scheduler.New(
		database,
		logger,
		cfg.App.SchedulerPollInterval,
		cfg.App.SchedulerRetryBase,
		cfg.App.SchedulerMaxAttempts,
	)

	transferService := service.NewTransferService(
		database,
		service.NewTokenIssuer(),
		sched,
		notifier,
		logger,
		cfg.App.TokenExpiry,
		cfg.App.CancelDeadline,
	)
	settlementService := service.NewSettlementService(database, notifier, logger)

	sched.RegisterHandler(scheduler.TaskSettleTransaction, func(ctx context.Context, raw json.RawMessage) error {
		var payload scheduler.TransactionPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return settlementService.Settle(ctx, payload.TransactionID)
	})
	sched.RegisterHandler(scheduler.TaskCancelTransaction, func(ctx context.Context, raw json.RawMessage) error {
		var payload scheduler.TransactionPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return transferService.CancelExpired(ctx, payload.TransactionID)
	})
	sched.RegisterHandler(scheduler.TaskTokenExpiry, func(ctx context.Context, raw json.RawMessage) error {
		var payload scheduler.TokenPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return transferService.ExpireToken(ctx, payload.TokenID)
	})

	go sched.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(database, transferService, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
