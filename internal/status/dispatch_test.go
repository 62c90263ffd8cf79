// internal/status/dispatch_test.go
package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockEmailSender struct {
	mu            sync.Mutex
	sent          []string
	SendEmailFunc func(ctx context.Context, job *models.NotificationJob) error
}

func (m *MockEmailSender) SendEmail(ctx context.Context, job *models.NotificationJob) error {
	m.mu.Lock()
	m.sent = append(m.sent, job.RecipientEmail)
	m.mu.Unlock()
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, job)
	}
	return nil
}

func (m *MockEmailSender) attempted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type MockSMSSender struct {
	mu          sync.Mutex
	phones      []string
	SendSMSFunc func(ctx context.Context, phone, message string) error
}

func (m *MockSMSSender) SendSMS(ctx context.Context, phone, message string) error {
	m.mu.Lock()
	m.phones = append(m.phones, phone)
	m.mu.Unlock()
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, phone, message)
	}
	return nil
}

func (m *MockSMSSender) attempted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.phones...)
}

type MockAuditor struct {
	mu      sync.Mutex
	records []*models.NotificationRecord
}

func (m *MockAuditor) Record(ctx context.Context, rec *models.NotificationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *MockAuditor) recorded() []*models.NotificationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.NotificationRecord(nil), m.records...)
}

// ==========================
// Test Helper Functions
// ==========================

func testJobs(emails ...string) []models.NotificationJob {
	jobs := make([]models.NotificationJob, 0, len(emails))
	for _, email := range emails {
		jobs = append(jobs, models.NotificationJob{
			RecipientEmail: email,
			Subject:        "Your project is In Review",
			BodyHTML:       "<p>Update</p>",
		})
	}
	return jobs
}

func emailOnlyConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:       4,
		PerJobTimeout: 5 * time.Second,
		EmailEnabled:  true,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestDispatcher_Dispatch_AllSucceed(t *testing.T) {
	email := &MockEmailSender{}
	audit := &MockAuditor{}
	d := NewDispatcher(email, nil, audit, emailOnlyConfig(), logger.NewTestLogger(t))

	result := d.Dispatch(context.Background(), 42, 30, testJobs("a@x.com", "b@x.com", "c@x.com"))

	assert.Equal(t, 3, result.Sent)
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com", "c@x.com"}, email.attempted())
	assert.Len(t, audit.recorded(), 3)
}

// One recipient failing never blocks the siblings, and there is no retry.
func TestDispatcher_Dispatch_PartialFailure(t *testing.T) {
	email := &MockEmailSender{
		SendEmailFunc: func(ctx context.Context, job *models.NotificationJob) error {
			if job.RecipientEmail == "b@x.com" {
				return errors.New("mailbox full")
			}
			return nil
		},
	}
	d := NewDispatcher(email, nil, &MockAuditor{}, emailOnlyConfig(), logger.NewTestLogger(t))

	result := d.Dispatch(context.Background(), 42, 30, testJobs("a@x.com", "b@x.com", "c@x.com"))

	assert.Equal(t, 2, result.Sent)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, "b@x.com", result.Failed[0].Recipient)
	assert.Contains(t, result.Failed[0].Reason, "mailbox full")
	// Every recipient was still attempted exactly once.
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com", "c@x.com"}, email.attempted())
}

func TestDispatcher_Dispatch_AllFail(t *testing.T) {
	email := &MockEmailSender{
		SendEmailFunc: func(ctx context.Context, job *models.NotificationJob) error {
			return errors.New("SES unavailable")
		},
	}
	d := NewDispatcher(email, nil, &MockAuditor{}, emailOnlyConfig(), logger.NewTestLogger(t))

	result := d.Dispatch(context.Background(), 42, 30, testJobs("a@x.com", "b@x.com"))

	assert.Equal(t, 0, result.Sent)
	assert.Len(t, result.Failed, 2)
}

func TestDispatcher_Dispatch_NoJobs(t *testing.T) {
	d := NewDispatcher(&MockEmailSender{}, nil, nil, emailOnlyConfig(), logger.NewTestLogger(t))

	result := d.Dispatch(context.Background(), 42, 30, nil)

	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, result.Failed)
}

func TestDispatcher_Dispatch_BoundedFanOut(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	email := &MockEmailSender{
		SendEmailFunc: func(ctx context.Context, job *models.NotificationJob) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		},
	}

	cfg := emailOnlyConfig()
	cfg.Workers = 2
	d := NewDispatcher(email, nil, nil, cfg, logger.NewTestLogger(t))

	emails := make([]string, 10)
	for i := range emails {
		emails[i] = "r@x.com"
	}
	result := d.Dispatch(context.Background(), 42, 30, testJobs(emails...))

	assert.Equal(t, 10, result.Sent)
	assert.LessOrEqual(t, peak, 2)
}

// ==========================
// SMS Channel
// ==========================

func TestDispatcher_Dispatch_SMSChannel(t *testing.T) {
	tests := []struct {
		name       string
		smsEnabled bool
		urgent     bool
		phone      string
		wantSMS    bool
	}{
		{"urgent with phone", true, true, "+15550001111", true},
		{"urgent without phone", true, true, "", false},
		{"not urgent", true, false, "+15550001111", false},
		{"sms disabled", false, true, "+15550001111", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sms := &MockSMSSender{}
			cfg := emailOnlyConfig()
			cfg.SMSEnabled = tt.smsEnabled
			d := NewDispatcher(&MockEmailSender{}, sms, nil, cfg, logger.NewTestLogger(t))

			jobs := []models.NotificationJob{{
				RecipientEmail: "a@x.com",
				RecipientPhone: tt.phone,
				Subject:        "Urgent: inspection failed",
				Urgent:         tt.urgent,
			}}
			result := d.Dispatch(context.Background(), 42, 30, jobs)

			assert.Equal(t, 1, result.Sent)
			if tt.wantSMS {
				assert.Equal(t, []string{tt.phone}, sms.attempted())
			} else {
				assert.Empty(t, sms.attempted())
			}
		})
	}
}

// SMS is best-effort on top of email; its failure never fails the job.
func TestDispatcher_Dispatch_SMSFailureDoesNotFailJob(t *testing.T) {
	sms := &MockSMSSender{
		SendSMSFunc: func(ctx context.Context, phone, message string) error {
			return errors.New("SNS unavailable")
		},
	}
	cfg := emailOnlyConfig()
	cfg.SMSEnabled = true
	d := NewDispatcher(&MockEmailSender{}, sms, nil, cfg, logger.NewTestLogger(t))

	jobs := []models.NotificationJob{{
		RecipientEmail: "a@x.com",
		RecipientPhone: "+15550001111",
		Urgent:         true,
	}}
	result := d.Dispatch(context.Background(), 42, 30, jobs)

	assert.Equal(t, 1, result.Sent)
	assert.Empty(t, result.Failed)
}

// ==========================
// Audit Trail
// ==========================

func TestDispatcher_Dispatch_AuditRecords(t *testing.T) {
	email := &MockEmailSender{
		SendEmailFunc: func(ctx context.Context, job *models.NotificationJob) error {
			if job.RecipientEmail == "fail@x.com" {
				return errors.New("bounced")
			}
			return nil
		},
	}
	audit := &MockAuditor{}
	d := NewDispatcher(email, nil, audit, emailOnlyConfig(), logger.NewTestLogger(t))

	d.Dispatch(context.Background(), 42, 30, testJobs("ok@x.com", "fail@x.com"))

	records := audit.recorded()
	assert.Len(t, records, 2)

	byRecipient := map[string]*models.NotificationRecord{}
	for _, rec := range records {
		byRecipient[rec.Recipient] = rec
		assert.Equal(t, int64(42), rec.ProjectID)
		assert.Equal(t, 30, rec.StatusCode)
		assert.Equal(t, models.ChannelEmail, rec.Channel)
		assert.False(t, rec.SentAt.IsZero())
	}
	assert.Equal(t, models.DeliveryStatusSent, byRecipient["ok@x.com"].Status)
	assert.Equal(t, models.DeliveryStatusFailed, byRecipient["fail@x.com"].Status)
	assert.Contains(t, byRecipient["fail@x.com"].Error, "bounced")
}
