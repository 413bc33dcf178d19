package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/chimehq/roi-intake/cmd/mainconfig"
	"github.com/chimehq/roi-intake/internal/audit"
	appconfig "github.com/chimehq/roi-intake/internal/config"
	"github.com/chimehq/roi-intake/internal/crm/hubspot"
	"github.com/chimehq/roi-intake/internal/dispatch"
	"github.com/chimehq/roi-intake/internal/notify"
	"github.com/chimehq/roi-intake/internal/submissions"
	"github.com/chimehq/roi-intake/internal/worker/notifydispatch"
	"github.com/chimehq/roi-intake/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.NotifyQueueURL == "" {
		logger.Error("NOTIFY_QUEUE_URL is required for the notify worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	var marker notifydispatch.SubmissionMarker
	var recorder notifydispatch.EventRecorder
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		marker = submissions.NewPostgresRepository(pool)
		recorder = audit.NewService(stdlib.OpenDBFromPool(pool))
	} else {
		logger.Warn("DATABASE_URL not set, delivery status will not be recorded")
	}

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

	queue := dispatch.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)

	worker := notifydispatch.New(queue, notifySvc, crm, marker, recorder, nil, logger,
		notifydispatch.WithWorkerCount(cfg.WorkerCount),
	)
	worker.Start(ctx)
	logger.Info("notify worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notify worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notify worker stopped")
	case <-doneCtx.Done():
		logger.Error("notify worker shutdown timed out", "error", doneCtx.Err())
	}
}
