package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_LogEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "submission created",
			event: Event{
				EventType:    EventSubmissionCreated,
				SubmissionID: "sub-123",
				Email:        "jane@example.com",
				LeadTier:     "Hot",
				LeadScore:    120,
				Insights:     []string{"High revenue business ($150000/month)"},
			},
		},
		{
			name: "validation failed",
			event: Event{
				EventType: EventValidationFailed,
				Email:     "bad@example.com",
				Details:   json.RawMessage(`{"field_errors":{"monthly_revenue":"Monthly Revenue must be at least $1,000"}}`),
			},
		},
		{
			name: "crm synced",
			event: Event{
				EventType:    EventCRMSynced,
				SubmissionID: "sub-456",
				Details:      json.RawMessage(`{"contact_id":"c-1","deal_id":"d-1"}`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO submission_events").
				WillReturnResult(sqlmock.NewResult(1, 1))

			err := service.LogEvent(context.Background(), tt.event)
			assert.NoError(t, err)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_LogEventFillsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	mock.ExpectExec("INSERT INTO submission_events").
		WithArgs(
			sqlmock.AnyArg(), // generated id
			string(EventSubmissionCreated),
			"sub-1",
			sqlmock.AnyArg(),
			"Warm",
			75,
			sqlmock.AnyArg(),
			nil,
			sqlmock.AnyArg(), // generated created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = service.LogSubmissionCreated(context.Background(), "sub-1", "jane@example.com", "Warm", 75, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_LogEmailOutcomes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	mock.ExpectExec("INSERT INTO submission_events").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, service.LogEmail(context.Background(), "sub-1", "confirmation", "jane@example.com", nil))

	mock.ExpectExec("INSERT INTO submission_events").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, service.LogEmail(context.Background(), "sub-1", "confirmation", "jane@example.com", errors.New("smtp down")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_LogEventInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	mock.ExpectExec("INSERT INTO submission_events").
		WillReturnError(errors.New("connection refused"))

	err = service.LogEvent(context.Background(), Event{EventType: EventSubmissionCreated})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "audit:")
}

func TestService_QueryEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "event_type", "submission_id", "email", "lead_tier",
		"lead_score", "insights", "details", "created_at",
	}).AddRow(
		"evt-1", string(EventSubmissionCreated), "sub-1", "jane@example.com", "Hot",
		130, pq.Array([]string{"Industry with perfect product fit"}), []byte(`{}`), now,
	)

	mock.ExpectQuery("SELECT id, event_type, submission_id").
		WithArgs("sub-1").
		WillReturnRows(rows)

	events, err := service.QueryEvents(context.Background(), Filter{SubmissionID: "sub-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventSubmissionCreated, events[0].EventType)
	assert.Equal(t, "Hot", events[0].LeadTier)
	assert.Equal(t, 130, events[0].LeadScore)
	assert.Equal(t, []string{"Industry with perfect product fit"}, events[0].Insights)
}
