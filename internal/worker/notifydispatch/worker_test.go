package notifydispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimehq/roi-intake/internal/crm/hubspot"
	"github.com/chimehq/roi-intake/internal/dispatch"
	"github.com/chimehq/roi-intake/internal/leadscore"
	"github.com/chimehq/roi-intake/pkg/logging"
)

type mockNotifier struct {
	mu              sync.Mutex
	confirmations   []dispatch.SubmissionJob
	alerts          []dispatch.SubmissionJob
	confirmationErr error
	alertErr        error
}

func (m *mockNotifier) SendConfirmation(ctx context.Context, job dispatch.SubmissionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confirmationErr != nil {
		return m.confirmationErr
	}
	m.confirmations = append(m.confirmations, job)
	return nil
}

func (m *mockNotifier) SendInternalNotification(ctx context.Context, job dispatch.SubmissionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alertErr != nil {
		return m.alertErr
	}
	m.alerts = append(m.alerts, job)
	return nil
}

type mockCRM struct {
	mu         sync.Mutex
	contacts   []hubspot.ContactInput
	deals      []hubspot.DealInput
	tasks      []string
	contactErr error
	dealErr    error
	taskErr    error
}

func (m *mockCRM) UpsertContact(ctx context.Context, contact hubspot.ContactInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contactErr != nil {
		return "", m.contactErr
	}
	m.contacts = append(m.contacts, contact)
	return "contact-1", nil
}

func (m *mockCRM) CreateDeal(ctx context.Context, deal hubspot.DealInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dealErr != nil {
		return "", m.dealErr
	}
	m.deals = append(m.deals, deal)
	return "deal-1", nil
}

func (m *mockCRM) CreateFollowUpTask(ctx context.Context, contactID string, tier leadscore.Tier) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taskErr != nil {
		return "", m.taskErr
	}
	m.tasks = append(m.tasks, contactID)
	return "task-1", nil
}

type mockMarker struct {
	mu        sync.Mutex
	emailSent []string
	crmSynced []string
	contactID string
	dealID    string
}

func (m *mockMarker) MarkEmailSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailSent = append(m.emailSent, id)
	return nil
}

func (m *mockMarker) MarkCRMSynced(ctx context.Context, id, contactID, dealID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crmSynced = append(m.crmSynced, id)
	m.contactID = contactID
	m.dealID = dealID
	return nil
}

type recordedEmail struct {
	submissionID string
	emailType    string
	failed       bool
}

type mockRecorder struct {
	mu     sync.Mutex
	emails []recordedEmail
	crm    []string
	crmErr []bool
}

func (m *mockRecorder) LogEmail(ctx context.Context, submissionID, emailType, recipient string, sendErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, recordedEmail{submissionID, emailType, sendErr != nil})
	return nil
}

func (m *mockRecorder) LogCRMSync(ctx context.Context, submissionID, contactID, dealID string, syncErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crm = append(m.crm, submissionID)
	m.crmErr = append(m.crmErr, syncErr != nil)
	return nil
}

func testJob() dispatch.SubmissionJob {
	return dispatch.SubmissionJob{
		SubmissionID:   "sub-1",
		Email:          "jane@example.com",
		FirstName:      "Jane",
		LastName:       "Doe",
		MonthlyRevenue: 10000,
		LeadScore:      110,
		LeadTier:       "Hot",
	}
}

func TestProcessJobHappyPath(t *testing.T) {
	notifier := &mockNotifier{}
	crm := &mockCRM{}
	marker := &mockMarker{}
	recorder := &mockRecorder{}
	w := New(nil, notifier, crm, marker, recorder, nil, logging.New("error"))

	w.ProcessJob(context.Background(), testJob())

	require.Len(t, notifier.confirmations, 1)
	require.Len(t, notifier.alerts, 1)
	require.Len(t, crm.contacts, 1)
	assert.Equal(t, "jane@example.com", crm.contacts[0].Email)
	require.Len(t, crm.deals, 1)
	// Deal amount: 10000 * 0.30 * 12
	assert.Equal(t, float64(36000), crm.deals[0].ExpectedAnnualBenefit)
	assert.Equal(t, []string{"contact-1"}, crm.tasks)

	assert.Equal(t, []string{"sub-1"}, marker.emailSent)
	assert.Equal(t, []string{"sub-1"}, marker.crmSynced)
	assert.Equal(t, "contact-1", marker.contactID)
	assert.Equal(t, "deal-1", marker.dealID)

	require.Len(t, recorder.emails, 2)
	assert.Equal(t, "confirmation", recorder.emails[0].emailType)
	assert.Equal(t, "sales_alert", recorder.emails[1].emailType)
	assert.Equal(t, []string{"sub-1"}, recorder.crm)
	assert.Equal(t, []bool{false}, recorder.crmErr)
}

func TestProcessJobEmailFailureStillSyncsCRM(t *testing.T) {
	notifier := &mockNotifier{confirmationErr: errors.New("smtp down")}
	crm := &mockCRM{}
	marker := &mockMarker{}
	recorder := &mockRecorder{}
	w := New(nil, notifier, crm, marker, recorder, nil, logging.New("error"))

	w.ProcessJob(context.Background(), testJob())

	assert.Empty(t, marker.emailSent)
	assert.Equal(t, []string{"sub-1"}, marker.crmSynced)
	require.Len(t, recorder.emails, 2)
	assert.True(t, recorder.emails[0].failed)
	assert.False(t, recorder.emails[1].failed)
}

func TestProcessJobContactFailureSkipsDeal(t *testing.T) {
	crm := &mockCRM{contactErr: errors.New("hubspot 500")}
	marker := &mockMarker{}
	recorder := &mockRecorder{}
	w := New(nil, &mockNotifier{}, crm, marker, recorder, nil, logging.New("error"))

	w.ProcessJob(context.Background(), testJob())

	assert.Empty(t, crm.deals)
	assert.Empty(t, marker.crmSynced)
	assert.Equal(t, []string{"sub-1"}, marker.emailSent)
	assert.Equal(t, []bool{true}, recorder.crmErr)
}

func TestProcessJobTaskFailureNotFatal(t *testing.T) {
	crm := &mockCRM{taskErr: errors.New("hubspot 500")}
	marker := &mockMarker{}
	w := New(nil, &mockNotifier{}, crm, marker, nil, nil, logging.New("error"))

	w.ProcessJob(context.Background(), testJob())

	assert.Equal(t, []string{"sub-1"}, marker.crmSynced)
}

func TestProcessJobNilCollaborators(t *testing.T) {
	w := New(nil, nil, nil, nil, nil, nil, logging.New("error"))
	// Must not panic.
	w.ProcessJob(context.Background(), testJob())
}

func TestWorkerConsumesFromQueue(t *testing.T) {
	queue := dispatch.NewMemoryQueue(8)
	publisher := dispatch.NewPublisher(queue, logging.New("error"))
	require.NoError(t, publisher.EnqueueSubmission(context.Background(), testJob()))

	notifier := &mockNotifier{}
	marker := &mockMarker{}
	w := New(queue, notifier, &mockCRM{}, marker, nil, nil, logging.New("error"),
		WithWorkerCount(1), WithReceiveWaitSeconds(0), WithReceiveBatchSize(1))

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.Eventually(t, func() bool {
		marker.mu.Lock()
		defer marker.mu.Unlock()
		return len(marker.emailSent) == 1 && len(marker.crmSynced) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()

	assert.Equal(t, []string{"sub-1"}, marker.emailSent)
}

func TestWorkerSkipsMalformedMessages(t *testing.T) {
	queue := dispatch.NewMemoryQueue(8)
	require.NoError(t, queue.Send(context.Background(), "{not json"))
	require.NoError(t, queue.Send(context.Background(), `{"submission_id":"sub-2","email":"x@example.com","lead_tier":"Cold"}`))

	marker := &mockMarker{}
	w := New(queue, &mockNotifier{}, &mockCRM{}, marker, nil, nil, logging.New("error"),
		WithWorkerCount(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.Eventually(t, func() bool {
		marker.mu.Lock()
		defer marker.mu.Unlock()
		return len(marker.emailSent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()

	assert.Equal(t, []string{"sub-2"}, marker.emailSent)
}

func TestOptionsClampBatchSize(t *testing.T) {
	w := New(nil, nil, nil, nil, nil, nil, logging.New("error"), WithReceiveBatchSize(50))
	assert.Equal(t, maxReceiveBatchSize, w.cfg.receiveBatchSize)
}
