// internal/models/notification.go
package models

import "time"

// NotificationJob is one fully substituted outbound message for a single
// recipient. Every {{TOKEN}} in the source template has been replaced or
// stripped by the time a job exists.
type NotificationJob struct {
	RecipientEmail string `json:"recipientEmail"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
	Subject        string `json:"subject"`
	BodyHTML       string `json:"bodyHtml"`
	ButtonText     string `json:"buttonText,omitempty"`
	ButtonLink     string `json:"buttonLink,omitempty"`
	SkipTracking   bool   `json:"skipTracking"`
	Urgent         bool   `json:"urgent"`
}

// DispatchFailure records one recipient whose delivery attempt failed.
type DispatchFailure struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// DispatchResult aggregates a fan-out: dispatch is best-effort per
// recipient, so partial success is the normal shape, not an error.
type DispatchResult struct {
	Sent   int               `json:"sent"`
	Failed []DispatchFailure `json:"failed,omitempty"`
}

// Delivery statuses for the notification log.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// Delivery channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// NotificationRecord is the persisted audit row for one delivery attempt.
type NotificationRecord struct {
	ID         string    `json:"id"`
	ProjectID  int64     `json:"projectId"`
	StatusCode int       `json:"statusCode"`
	Recipient  string    `json:"recipient"`
	Channel    string    `json:"channel"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}
