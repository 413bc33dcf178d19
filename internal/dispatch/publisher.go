package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chimehq/roi-intake/pkg/logging"
)

// SubmissionJob is the payload handed to the notification worker after a
// submission is persisted. It carries everything the worker needs so it never
// has to re-read the row for the common path.
type SubmissionJob struct {
	SubmissionID string  `json:"submission_id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Company      string  `json:"company,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Website      string  `json:"website,omitempty"`

	Industry      string `json:"industry,omitempty"`
	CompanySize   string `json:"company_size,omitempty"`
	BusinessStage string `json:"business_stage,omitempty"`

	MonthlyRevenue    float64 `json:"monthly_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	MonthlyOrders     int     `json:"monthly_orders"`

	LeadScore int      `json:"lead_score"`
	LeadTier  string   `json:"lead_tier"`
	Insights  []string `json:"insights,omitempty"`
}

// Publisher serializes submission jobs onto the queue.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a publisher over the given queue.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// EnqueueSubmission publishes a notification job. The caller treats failures
// as non-fatal: the submission is already persisted.
func (p *Publisher) EnqueueSubmission(ctx context.Context, job SubmissionJob) error {
	if p.queue == nil {
		p.logger.Warn("dispatch: queue not configured, dropping job", "submission_id", job.SubmissionID)
		return nil
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("dispatch: marshal job: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("dispatch: enqueue submission %s: %w", job.SubmissionID, err)
	}
	p.logger.Info("submission job enqueued", "submission_id", job.SubmissionID, "tier", job.LeadTier)
	return nil
}

// DecodeJob parses a queue message body back into a job.
func DecodeJob(body string) (SubmissionJob, error) {
	var job SubmissionJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return SubmissionJob{}, fmt.Errorf("dispatch: decode job: %w", err)
	}
	return job, nil
}
