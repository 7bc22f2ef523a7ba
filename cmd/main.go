/**
 * @description
 * Main entry point for the IAudit billing service. It wires configuration,
 * the database pool, the Bradesco gateway, the notification dispatcher and
 * the cron scheduler, then serves the HTTP API until a termination signal
 * arrives.
 */
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/api"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/app"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/config"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/settings"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/store"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/pkg/bradescoclient"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/pkg/resendclient"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/pkg/smtpmailer"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/pkg/twilioclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Stores.
	repo := store.NewRepository(dbpool)
	commRepo := store.NewCommRepository(dbpool)

	// Dynamic settings (messaging kill switch and dashboard toggles).
	settingsSvc, err := settings.NewService(cfg.SettingsFilePath)
	if err != nil {
		logger.Error("failed to initialize dynamic settings", "error", err)
		os.Exit(1)
	}

	// Bradesco gateway.
	baseURL := bradescoclient.BaseURL(cfg.BradescoSandbox)
	tokens := bradescoclient.NewTokenProvider(baseURL, cfg.BradescoClientID, cfg.BradescoPrivateKeyPath, logger)
	gateway := bradescoclient.NewClient(baseURL, cfg.BradescoNegotiation, cfg.BradescoAccessKey, tokens, logger)

	// Notification channels.
	emailClient := resendclient.NewClient("", cfg.ResendAPIKey, cfg.EmailFrom)
	smtpClient := smtpmailer.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	whatsappClient := twilioclient.NewClient("", cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	dispatcher := app.NewDispatcher(settingsSvc, emailClient, smtpClient, whatsappClient, commRepo, logger)
	defer dispatcher.Close()

	// Billing jobs.
	engine := app.NewBillingEngine(repo, gateway, dispatcher, logger, cfg.BillingLeadDays, cfg.APIHost)
	monitor := app.NewMonitor(repo, gateway, dispatcher, logger,
		time.Duration(cfg.MonitorPaceMillis)*time.Millisecond, cfg.APIHost)
	jobs := app.NewJobs(engine, monitor, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.BillingJobSchedule, cfg.MonitorJobSchedule)

	scheduler.Start()
	logger.Info("scheduler started")

	// HTTP API.
	handler := api.NewHandler(engine, monitor, gateway, repo, commRepo, dispatcher, settingsSvc, logger, cfg.APIHost)
	router := api.NewRouter(handler, func(w http.ResponseWriter, r *http.Request) {
		api.WriteHealth(w, scheduler.Entries())
	})

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("could not start server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}
