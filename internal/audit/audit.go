// Package audit records an immutable trail of submission lifecycle events.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventType identifies what happened to a submission.
type EventType string

const (
	// EventSubmissionCreated is logged when a submission is persisted.
	EventSubmissionCreated EventType = "submission.created"
	// EventValidationFailed is logged when a submission is rejected.
	EventValidationFailed EventType = "submission.validation_failed"
	// EventEmailSent is logged when a notification email is delivered.
	EventEmailSent EventType = "notify.email_sent"
	// EventEmailFailed is logged when a notification email could not be sent.
	EventEmailFailed EventType = "notify.email_failed"
	// EventCRMSynced is logged when a submission reaches the CRM.
	EventCRMSynced EventType = "crm.synced"
	// EventCRMFailed is logged when CRM sync fails.
	EventCRMFailed EventType = "crm.failed"
)

// Event is a single audit record. Insights holds the scoring highlights so
// a reviewer can see why a tier was assigned without replaying the scorer.
type Event struct {
	ID           string          `json:"id"`
	EventType    EventType       `json:"event_type"`
	SubmissionID string          `json:"submission_id,omitempty"`
	Email        string          `json:"email,omitempty"`
	LeadTier     string          `json:"lead_tier,omitempty"`
	LeadScore    int             `json:"lead_score"`
	Insights     []string        `json:"insights,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Details carries event-specific context.
type Details struct {
	// For validation failures
	FieldErrors map[string]string `json:"field_errors,omitempty"`

	// For email events
	EmailType string `json:"email_type,omitempty"`
	Recipient string `json:"recipient,omitempty"`

	// For CRM events
	ContactID string `json:"contact_id,omitempty"`
	DealID    string `json:"deal_id,omitempty"`

	// For failures
	Error string `json:"error,omitempty"`
}

// Recorder is the slice of Service the request path depends on.
type Recorder interface {
	LogEvent(ctx context.Context, event Event) error
}

// Service writes audit events to Postgres over database/sql.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// LogEvent records an audit event. IDs and timestamps are filled in when the
// caller leaves them zero.
func (s *Service) LogEvent(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO submission_events (
			id, event_type, submission_id, email, lead_tier,
			lead_score, insights, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		nullString(event.SubmissionID),
		nullString(event.Email),
		nullString(event.LeadTier),
		event.LeadScore,
		pq.Array(event.Insights),
		nullRaw(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to log event: %w", err)
	}
	return nil
}

// LogSubmissionCreated records a persisted submission along with its scoring
// insights.
func (s *Service) LogSubmissionCreated(ctx context.Context, submissionID, email, tier string, score int, insights []string) error {
	return s.LogEvent(ctx, Event{
		EventType:    EventSubmissionCreated,
		SubmissionID: submissionID,
		Email:        email,
		LeadTier:     tier,
		LeadScore:    score,
		Insights:     insights,
	})
}

// LogValidationFailed records a rejected submission with its field errors.
func (s *Service) LogValidationFailed(ctx context.Context, email string, fieldErrors map[string]string) error {
	detailsJSON, _ := json.Marshal(Details{FieldErrors: fieldErrors})
	return s.LogEvent(ctx, Event{
		EventType: EventValidationFailed,
		Email:     email,
		Details:   detailsJSON,
	})
}

// LogEmail records the outcome of a notification email.
func (s *Service) LogEmail(ctx context.Context, submissionID, emailType, recipient string, sendErr error) error {
	details := Details{EmailType: emailType, Recipient: recipient}
	eventType := EventEmailSent
	if sendErr != nil {
		eventType = EventEmailFailed
		details.Error = sendErr.Error()
	}
	detailsJSON, _ := json.Marshal(details)
	return s.LogEvent(ctx, Event{
		EventType:    eventType,
		SubmissionID: submissionID,
		Details:      detailsJSON,
	})
}

// LogCRMSync records the outcome of a CRM sync attempt.
func (s *Service) LogCRMSync(ctx context.Context, submissionID, contactID, dealID string, syncErr error) error {
	details := Details{ContactID: contactID, DealID: dealID}
	eventType := EventCRMSynced
	if syncErr != nil {
		eventType = EventCRMFailed
		details.Error = syncErr.Error()
	}
	detailsJSON, _ := json.Marshal(details)
	return s.LogEvent(ctx, Event{
		EventType:    eventType,
		SubmissionID: submissionID,
		Details:      detailsJSON,
	})
}

// Filter specifies criteria for querying audit events.
type Filter struct {
	SubmissionID string
	EventType    EventType
	StartTime    time.Time
	EndTime      time.Time
	Limit        int
	Offset       int
}

// QueryEvents retrieves audit events matching the filter, newest first.
func (s *Service) QueryEvents(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT id, event_type, submission_id, email, lead_tier,
			   lead_score, insights, details, created_at
		FROM submission_events
		WHERE 1=1
	`
	var args []interface{}
	argIdx := 1

	if filter.SubmissionID != "" {
		query += fmt.Sprintf(" AND submission_id = $%d", argIdx)
		args = append(args, filter.SubmissionID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var submissionID, email, tier sql.NullString
		var details []byte
		err := rows.Scan(
			&e.ID, &e.EventType, &submissionID, &email, &tier,
			&e.LeadScore, pq.Array(&e.Insights), &details, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to scan event: %w", err)
		}
		e.SubmissionID = submissionID.String
		e.Email = email.String
		e.LeadTier = tier.String
		e.Details = details
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read events: %w", err)
	}

	return events, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullRaw(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
