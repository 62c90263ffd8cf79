// internal/status/dispatch.go
package status

import (
	"context"
	"sync"
	"time"

	"firepm-api/internal/common/logger"
	"firepm-api/internal/common/metrics"
	"firepm-api/internal/models"
)

// EmailSender delivers one job's email. The SES implementation lives in
// internal/notify.
type EmailSender interface {
	SendEmail(ctx context.Context, job *models.NotificationJob) error
}

// SMSSender delivers the urgent-status SMS channel.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Auditor records every delivery attempt (notification log + search index).
type Auditor interface {
	Record(ctx context.Context, rec *models.NotificationRecord)
}

// DispatcherConfig bounds the fan-out.
type DispatcherConfig struct {
	Workers       int
	PerJobTimeout time.Duration
	EmailEnabled  bool
	SMSEnabled    bool
}

// Dispatcher fans a job list out to the delivery collaborators. Each
// recipient is attempted independently: one failure never blocks
// siblings, and there is no retry — a failed attempt is terminal and
// lands in the result's failed list.
type Dispatcher struct {
	email  EmailSender
	sms    SMSSender
	audit  Auditor
	cfg    DispatcherConfig
	logger logger.Logger
}

func NewDispatcher(email EmailSender, sms SMSSender, audit Auditor, cfg DispatcherConfig, log logger.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.PerJobTimeout <= 0 {
		cfg.PerJobTimeout = 10 * time.Second
	}
	return &Dispatcher{
		email:  email,
		sms:    sms,
		audit:  audit,
		cfg:    cfg,
		logger: log,
	}
}

// Dispatch delivers every job and reports partial success. projectID and
// statusCode are only carried into the audit trail.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID int64, statusCode int, jobs []models.NotificationJob) *models.DispatchResult {
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, d.cfg.Workers)

	for i := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = d.deliver(ctx, projectID, statusCode, &jobs[i])
		}(i)
	}
	wg.Wait()

	result := &models.DispatchResult{}
	for i, err := range errs {
		if err == nil {
			result.Sent++
			continue
		}
		result.Failed = append(result.Failed, models.DispatchFailure{
			Recipient: jobs[i].RecipientEmail,
			Reason:    err.Error(),
		})
	}
	return result
}

// deliver attempts one recipient: email always, SMS additionally for
// urgent statuses when the recipient has a phone number. SMS trouble is
// logged but never fails the job; email is the channel of record.
func (d *Dispatcher) deliver(ctx context.Context, projectID int64, statusCode int, job *models.NotificationJob) error {
	jobCtx, cancel := context.WithTimeout(ctx, d.cfg.PerJobTimeout)
	defer cancel()

	metrics.DispatchInFlight.Inc()
	defer metrics.DispatchInFlight.Dec()

	var emailErr error
	if d.cfg.EmailEnabled && d.email != nil {
		start := time.Now()
		emailErr = d.email.SendEmail(jobCtx, job)
		metrics.DispatchDuration.WithLabelValues(models.ChannelEmail).Observe(time.Since(start).Seconds())

		d.recordAttempt(ctx, projectID, statusCode, job, models.ChannelEmail, emailErr)
	}

	if d.cfg.SMSEnabled && d.sms != nil && job.Urgent && job.RecipientPhone != "" {
		start := time.Now()
		smsErr := d.sms.SendSMS(jobCtx, job.RecipientPhone, job.Subject)
		metrics.DispatchDuration.WithLabelValues(models.ChannelSMS).Observe(time.Since(start).Seconds())

		d.recordAttempt(ctx, projectID, statusCode, job, models.ChannelSMS, smsErr)
		if smsErr != nil {
			d.logger.Warn("urgent SMS delivery failed", map[string]interface{}{
				"projectId": projectID,
				"recipient": job.RecipientEmail,
				"error":     smsErr.Error(),
			})
		}
	}

	if emailErr != nil {
		d.logger.Error("notification delivery failed", map[string]interface{}{
			"projectId":  projectID,
			"statusCode": statusCode,
			"recipient":  job.RecipientEmail,
			"error":      emailErr.Error(),
		})
		return emailErr
	}
	return nil
}

func (d *Dispatcher) recordAttempt(ctx context.Context, projectID int64, statusCode int, job *models.NotificationJob, channel string, sendErr error) {
	status := models.DeliveryStatusSent
	errMsg := ""
	if sendErr != nil {
		status = models.DeliveryStatusFailed
		errMsg = sendErr.Error()
	}
	metrics.NotificationsDispatched.WithLabelValues(channel, status).Inc()

	if d.audit == nil {
		return
	}

	recipient := job.RecipientEmail
	if channel == models.ChannelSMS {
		recipient = job.RecipientPhone
	}
	d.audit.Record(ctx, &models.NotificationRecord{
		ProjectID:  projectID,
		StatusCode: statusCode,
		Recipient:  recipient,
		Channel:    channel,
		Subject:    job.Subject,
		Status:     status,
		Error:      errMsg,
		SentAt:     time.Now().UTC(),
	})
}
