// Package notifydispatch consumes submission jobs from the queue and performs
// the notification fan-out: confirmation email, sales alert, and CRM sync.
package notifydispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chimehq/roi-intake/internal/crm/hubspot"
	"github.com/chimehq/roi-intake/internal/dispatch"
	"github.com/chimehq/roi-intake/internal/leadscore"
	"github.com/chimehq/roi-intake/internal/observability/metrics"
	"github.com/chimehq/roi-intake/internal/roi"
	"github.com/chimehq/roi-intake/pkg/logging"
)

const (
	defaultWorkers          = 2
	defaultReceiveWaitSecs  = 10
	defaultReceiveBatchSize = 5
	maxReceiveBatchSize     = 10
)

// Notifier sends the post-submission emails.
type Notifier interface {
	SendConfirmation(ctx context.Context, job dispatch.SubmissionJob) error
	SendInternalNotification(ctx context.Context, job dispatch.SubmissionJob) error
}

// CRMSyncer pushes a lead into the CRM. Satisfied by *hubspot.Client.
type CRMSyncer interface {
	UpsertContact(ctx context.Context, contact hubspot.ContactInput) (string, error)
	CreateDeal(ctx context.Context, deal hubspot.DealInput) (string, error)
	CreateFollowUpTask(ctx context.Context, contactID string, tier leadscore.Tier) (string, error)
}

// SubmissionMarker records delivery progress on the submission row.
type SubmissionMarker interface {
	MarkEmailSent(ctx context.Context, id string) error
	MarkCRMSynced(ctx context.Context, id, contactID, dealID string) error
}

// EventRecorder writes the audit trail for the fan-out. Satisfied by
// *audit.Service.
type EventRecorder interface {
	LogEmail(ctx context.Context, submissionID, emailType, recipient string, sendErr error) error
	LogCRMSync(ctx context.Context, submissionID, contactID, dealID string, syncErr error) error
}

// Worker polls the queue and processes submission jobs. Failures in any single
// step are logged and recorded but never crash the loop: the submission is
// already persisted and a human can follow up from the audit trail.
type Worker struct {
	queue    dispatch.Queue
	notifier Notifier
	crm      CRMSyncer
	marker   SubmissionMarker
	recorder EventRecorder
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger
	cfg      workerConfig
	wg       sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// Option configures the worker.
type Option func(*workerConfig)

// WithWorkerCount sets the number of polling goroutines.
func WithWorkerCount(n int) Option {
	return func(cfg *workerConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithReceiveWaitSeconds sets the queue long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) Option {
	return func(cfg *workerConfig) {
		if seconds >= 0 {
			cfg.receiveWaitSecs = seconds
		}
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) Option {
	return func(cfg *workerConfig) {
		if size > 0 {
			if size > maxReceiveBatchSize {
				size = maxReceiveBatchSize
			}
			cfg.receiveBatchSize = size
		}
	}
}

// New creates a worker. notifier, crm, marker and recorder may be nil; the
// corresponding step is skipped.
func New(queue dispatch.Queue, notifier Notifier, crm CRMSyncer, marker SubmissionMarker, recorder EventRecorder, m *metrics.IntakeMetrics, logger *logging.Logger, opts ...Option) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWaitSecs,
		receiveBatchSize: defaultReceiveBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		queue:    queue,
		notifier: notifier,
		crm:      crm,
		marker:   marker,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start launches the polling goroutines. They exit when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notify worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notify worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive submission jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg dispatch.Message) {
	job, err := dispatch.DecodeJob(msg.Body)
	if err != nil {
		w.logger.Error("failed to decode submission job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	w.logger.Info("processing submission job",
		"submission_id", job.SubmissionID,
		"tier", job.LeadTier,
		"msg_id", msg.ID,
	)

	w.ProcessJob(ctx, job)
	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

// ProcessJob runs the full fan-out for one submission. Exported so the API
// process can run it inline when the memory queue is in use.
func (w *Worker) ProcessJob(ctx context.Context, job dispatch.SubmissionJob) {
	emailOK := w.sendEmails(ctx, job)
	contactID, dealID, crmOK := w.syncCRM(ctx, job)

	if w.marker == nil {
		return
	}
	if emailOK {
		if err := w.marker.MarkEmailSent(ctx, job.SubmissionID); err != nil {
			w.logger.Error("failed to mark email sent", "error", err, "submission_id", job.SubmissionID)
		}
	}
	if crmOK {
		if err := w.marker.MarkCRMSynced(ctx, job.SubmissionID, contactID, dealID); err != nil {
			w.logger.Error("failed to mark crm synced", "error", err, "submission_id", job.SubmissionID)
		}
	}
}

func (w *Worker) sendEmails(ctx context.Context, job dispatch.SubmissionJob) bool {
	if w.notifier == nil {
		return false
	}

	ok := true

	err := w.notifier.SendConfirmation(ctx, job)
	w.recordEmail(ctx, job, "confirmation", job.Email, err)
	if err != nil {
		w.logger.Error("confirmation email failed", "error", err, "submission_id", job.SubmissionID)
		ok = false
	}

	err = w.notifier.SendInternalNotification(ctx, job)
	w.recordEmail(ctx, job, "sales_alert", "", err)
	if err != nil {
		w.logger.Error("sales alert failed", "error", err, "submission_id", job.SubmissionID)
		ok = false
	}

	return ok
}

func (w *Worker) recordEmail(ctx context.Context, job dispatch.SubmissionJob, emailType, recipient string, sendErr error) {
	status := "sent"
	if sendErr != nil {
		status = "failed"
	}
	w.metrics.ObserveEmail(emailType, status)
	if w.recorder != nil {
		if err := w.recorder.LogEmail(ctx, job.SubmissionID, emailType, recipient, sendErr); err != nil {
			w.logger.Error("failed to record email event", "error", err, "submission_id", job.SubmissionID)
		}
	}
}

func (w *Worker) syncCRM(ctx context.Context, job dispatch.SubmissionJob) (contactID, dealID string, ok bool) {
	if w.crm == nil {
		return "", "", false
	}

	contactID, err := w.crm.UpsertContact(ctx, hubspot.ContactInput{
		Email:             job.Email,
		FirstName:         job.FirstName,
		LastName:          job.LastName,
		Company:           job.Company,
		Phone:             job.Phone,
		Website:           job.Website,
		Industry:          job.Industry,
		CompanySize:       job.CompanySize,
		BusinessStage:     job.BusinessStage,
		MonthlyRevenue:    job.MonthlyRevenue,
		AverageOrderValue: job.AverageOrderValue,
		MonthlyOrders:     job.MonthlyOrders,
		LeadScore:         job.LeadScore,
		LeadTier:          job.LeadTier,
	})
	if err != nil {
		w.metrics.ObserveCRMSync("contact", "failed")
		w.recordCRM(ctx, job, "", "", err)
		w.logger.Error("hubspot contact upsert failed", "error", err, "submission_id", job.SubmissionID)
		return "", "", false
	}
	w.metrics.ObserveCRMSync("contact", "ok")

	dealID, err = w.crm.CreateDeal(ctx, hubspot.DealInput{
		ContactID:             contactID,
		FirstName:             job.FirstName,
		LastName:              job.LastName,
		MonthlyRevenue:        job.MonthlyRevenue,
		ExpectedAnnualBenefit: roi.ExpectedAnnualBenefit(job.MonthlyRevenue),
		LeadScore:             job.LeadScore,
	})
	if err != nil {
		w.metrics.ObserveCRMSync("deal", "failed")
		w.recordCRM(ctx, job, contactID, "", err)
		w.logger.Error("hubspot deal creation failed", "error", err, "submission_id", job.SubmissionID)
		return contactID, "", false
	}
	w.metrics.ObserveCRMSync("deal", "ok")

	// Task failure is not fatal: the contact and deal already exist.
	if _, err := w.crm.CreateFollowUpTask(ctx, contactID, leadscore.Tier(job.LeadTier)); err != nil {
		w.metrics.ObserveCRMSync("task", "failed")
		w.logger.Error("hubspot task creation failed", "error", err, "submission_id", job.SubmissionID)
	} else {
		w.metrics.ObserveCRMSync("task", "ok")
	}

	w.recordCRM(ctx, job, contactID, dealID, nil)
	return contactID, dealID, true
}

func (w *Worker) recordCRM(ctx context.Context, job dispatch.SubmissionJob, contactID, dealID string, syncErr error) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.LogCRMSync(ctx, job.SubmissionID, contactID, dealID, syncErr); err != nil {
		w.logger.Error("failed to record crm event", "error", err, "submission_id", job.SubmissionID)
	}
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	deleteCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
