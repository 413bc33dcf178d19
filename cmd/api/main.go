package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/chimehq/roi-intake/cmd/mainconfig"
	"github.com/chimehq/roi-intake/internal/api/router"
	"github.com/chimehq/roi-intake/internal/audit"
	appconfig "github.com/chimehq/roi-intake/internal/config"
	"github.com/chimehq/roi-intake/internal/crm/hubspot"
	"github.com/chimehq/roi-intake/internal/dispatch"
	"github.com/chimehq/roi-intake/internal/health"
	httpmiddleware "github.com/chimehq/roi-intake/internal/http/middleware"
	"github.com/chimehq/roi-intake/internal/notify"
	"github.com/chimehq/roi-intake/internal/observability/metrics"
	"github.com/chimehq/roi-intake/internal/submissions"
	"github.com/chimehq/roi-intake/internal/worker/notifydispatch"
	"github.com/chimehq/roi-intake/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting roi-intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var repo submissions.Repository
	var auditSvc *audit.Service
	var healthDB health.Pinger
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = submissions.NewPostgresRepository(pool)
		healthDB = pool
		auditSvc = audit.NewService(stdlib.OpenDBFromPool(pool))
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory submission store")
		repo = submissions.NewInMemoryRepository()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Email delivery
	var sender notify.EmailSender
	if cfg.EmailProvider == "ses" {
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	} else if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	}
	if sender == nil {
		logger.Warn("no email provider configured, using stub sender")
		sender = notify.NewStubEmailSender(logger)
	}
	notifySvc := notify.NewService(sender, cfg.SalesRecipients, logger)

	// CRM
	var crm notifydispatch.CRMSyncer
	if cfg.HubSpotAPIKey != "" {
		client, err := hubspot.New(hubspot.Config{
			APIKey:  cfg.HubSpotAPIKey,
			BaseURL: cfg.HubSpotBaseURL,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to configure HubSpot client", "error", err)
			os.Exit(1)
		}
		crm = client
	} else {
		logger.Warn("HUBSPOT_API_KEY not set, CRM sync disabled")
	}

	// Queue. With the memory queue the notification worker runs inside the
	// API process; with SQS the notify-worker binary consumes the jobs.
	var queue dispatch.Queue
	useMemoryQueue := cfg.UseMemoryQueue || cfg.NotifyQueueURL == ""
	if useMemoryQueue {
		logger.Info("using in-process memory queue for notifications")
		queue = dispatch.NewMemoryQueue(0)
	} else {
		queue = dispatch.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	}
	publisher := dispatch.NewPublisher(queue, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	var recorder submissions.EventRecorder
	var workerRecorder notifydispatch.EventRecorder
	if auditSvc != nil {
		recorder = auditSvc
		workerRecorder = auditSvc
	}

	if useMemoryQueue {
		inlineWorker := notifydispatch.New(queue, notifySvc, crm, repo, workerRecorder, intakeMetrics, logger,
			notifydispatch.WithWorkerCount(cfg.WorkerCount),
			notifydispatch.WithReceiveWaitSeconds(1),
		)
		inlineWorker.Start(ctx)
		defer inlineWorker.Wait()
	}

	// Rate limiting
	var limiter httpmiddleware.Limiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		limiter = httpmiddleware.NewRedisLimiter(redisClient, cfg.RateLimitMaxRequests, cfg.RateLimitWindow, logger)
	} else {
		limiter = httpmiddleware.NewWindowLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow, nil)
	}

	// Handlers
	submissionsHandler := submissions.NewHandler(repo, publisher, recorder, intakeMetrics, logger)
	healthHandler := health.NewHandler(healthDB, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:               logger,
		SubmissionsHandler:   submissionsHandler,
		HealthHandler:        healthHandler,
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminJWTSecret:       cfg.AdminJWTSecret,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		RateLimiter:          limiter,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitWindow:      cfg.RateLimitWindow,
		OnRateLimited:        intakeMetrics.ObserveRateLimited,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	cancel()
	logger.Info("server stopped")
}
