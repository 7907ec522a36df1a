// Package main is the entry point for the DH Portal webhook server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/audit"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/clock"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/config"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/database"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/handler"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/logging"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/middleware"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/notify"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/ratelimit"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/repository"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/shutdown"
	"github.com/Dykstra-Hamel/DH-portal-sub006/migrations"
)

// webhookEventRetention controls how long the duplicate-delivery ledger keeps
// rows. Retell retries exhaust well inside this window.
const webhookEventRetention = 30 * 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger with runtime level adjustment
	appLogger, err := logging.New(&logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := appLogger.Zap()
	defer func() { _ = logger.Sync() }()

	logger.Info("starting DH Portal webhook server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Environment),
	)

	auditLogger := audit.NewLogger(logger)

	// Initialize database
	ctx := context.Background()
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	// Note: db.Close() is handled by shutdown coordinator

	// Apply schema migrations
	migrator := database.NewMigrator(db.Pool, logger)
	if err := migrator.Migrate(ctx, migrations.FS, "."); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize metrics and business event logging
	m := metrics.NewMetrics()
	events := metrics.NewBusinessEventLogger(logger)

	// Initialize repositories
	agentRepo := repository.NewAgentRepository(db.Pool)
	callRepo := repository.NewCallRecordRepository(db.Pool)
	customerRepo := repository.NewCustomerRepository(db.Pool)
	leadRepo := repository.NewLeadRepository(db.Pool)
	ticketRepo := repository.NewTicketRepository(db.Pool)
	supportCaseRepo := repository.NewSupportCaseRepository(db.Pool)
	settingsRepo := repository.NewCompanySettingsRepository(db.Pool)
	eventRepo := repository.NewWebhookEventRepository(db.Pool, logger)
	txm := database.NewTxManager(db.Pool, logger)

	// Initialize rate limit store (Redis when configured, in-memory otherwise)
	var limitStore ratelimit.Store
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limitStore = ratelimit.NewRedisStore(client)
		logger.Info("using Redis rate limit store", zap.String("addr", cfg.Redis.Addr))
	} else {
		limitStore = ratelimit.NewMemoryStore()
		logger.Info("using in-memory rate limit store")
	}
	limitCfg := ratelimit.Config{
		Limit:  cfg.RateLimit.Requests,
		Window: cfg.RateLimit.Window,
	}
	if limitCfg.Limit <= 0 {
		limitCfg = ratelimit.DefaultConfig()
	}

	// Initialize email sender; without an API key summaries only hit the logs
	var sender notify.Sender
	var emailHealth handler.EmailHealthChecker
	if cfg.Email.SendGridAPIKey != "" {
		sg := notify.NewSendGridSender(&cfg.Email, logger)
		sender = sg
		emailHealth = sg
		logger.Info("using SendGrid email sender")
	} else {
		sender = notify.NewLogSender(logger)
		logger.Info("email dispatch disabled, summaries logged only")
	}
	notifier := notify.NewService(sender, m, events, logger)
	automationRepo := repository.NewAutomationLogRepository(db.Pool)
	dispatcher := notify.NewLogAutomationDispatcher(logger)

	// Initialize services
	inboundSvc := service.NewInboundService(customerRepo, leadRepo, callRepo, settingsRepo, notifier, logger, m, events)
	outboundSvc := service.NewOutboundService(customerRepo, ticketRepo, callRepo, settingsRepo, notifier, logger, m, events)
	webhookSvc := service.NewWebhookService(agentRepo, eventRepo, inboundSvc, outboundSvc, callRepo, leadRepo, automationRepo, dispatcher, logger, m, events)
	customerSvc := service.NewCustomerService(customerRepo, logger)
	callSvc := service.NewCallRecordService(callRepo, logger)
	leadSvc := service.NewLeadService(leadRepo, customerRepo, logger, m)
	ticketSvc := service.NewTicketService(ticketRepo, leadRepo, supportCaseRepo, txm, logger, m, events)
	settingsSvc := service.NewCompanySettingsService(settingsRepo, logger)

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(handler.WebhookHandlerConfig{
		WebhookService: webhookSvc,
		WebhookSecret:  cfg.Retell.WebhookSecret,
		BearerToken:    cfg.API.BearerToken,
		Logger:         logger,
		Metrics:        m,
		Events:         events,
		Audit:          auditLogger,
	})
	healthHandler := handler.NewHealthHandler(handler.HealthHandlerConfig{
		HealthChecker:      db,
		EmailHealthChecker: emailHealth,
		ErrorStats:         m.Errors,
		Logger:             logger,
	})
	customerHandler := handler.NewCustomerAPIHandler(customerSvc, logger)
	leadHandler := handler.NewLeadAPIHandler(leadSvc, auditLogger, logger)
	ticketHandler := handler.NewTicketAPIHandler(ticketSvc, auditLogger, logger)
	callHandler := handler.NewCallAPIHandler(callSvc, logger)
	settingsHandler := handler.NewSettingsAPIHandler(settingsSvc, auditLogger, logger)
	logLevelHandler := handler.NewLogLevelHandler(appLogger.AtomicLevel(), logger)

	// Initialize request correlation
	correlation := middleware.NewRequestCorrelation(logger)

	// Initialize router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(correlation.Middleware) // First: add correlation IDs
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(m.Middleware)

	// Probes and operational endpoints
	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", m.Handler())
	r.Handle("/admin/log-level", logLevelHandler)

	// API surface
	r.Route("/api", func(r chi.Router) {
		// Webhook routes carry the rate limiter; replays and retries from the
		// provider should not starve the CRM API.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limitStore, limitCfg, logger))
			webhookHandler.RegisterRoutes(r)
		})

		customerHandler.RegisterRoutes(r)
		leadHandler.RegisterRoutes(r)
		ticketHandler.RegisterRoutes(r)
		callHandler.RegisterRoutes(r)
		settingsHandler.RegisterRoutes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	auditLogger.ServiceStarted(ctx, "1.0.0", cfg.Server.Environment)

	// Initialize shutdown coordinator
	shutdownCoord := shutdown.NewCoordinator(&shutdown.Config{
		Timeout: 30 * time.Second,
	}, logger)

	// Prune the webhook ledger periodically (respects shutdown signal)
	clk := clock.New()
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cutoff := clk.NowUTC().Add(-webhookEventRetention)
				if err := eventRepo.CleanupOlderThan(ctx, cutoff); err != nil {
					logger.Error("failed to prune webhook ledger", zap.Error(err))
				} else {
					logger.Debug("pruned webhook ledger", zap.Time("cutoff", cutoff))
				}
			case <-shutdownCoord.ShutdownCh():
				logger.Debug("webhook ledger pruning goroutine stopping")
				return
			}
		}
	}()

	shutdownCoord.RegisterFunc(shutdown.PhaseDrain, "http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	shutdownCoord.RegisterFunc(shutdown.PhaseWorkers, "ledger-pruning", func(ctx context.Context) error {
		select {
		case <-cleanupDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseCleanup, "database", func(ctx context.Context) error {
		db.Close()
		return nil
	})

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("received shutdown signal")
	auditLogger.ServiceStopping(ctx, "shutdown signal received")

	// Execute graceful shutdown
	if err := shutdownCoord.Shutdown(ctx); err != nil {
		logger.Error("shutdown completed with errors", zap.Error(err))
	}
}
