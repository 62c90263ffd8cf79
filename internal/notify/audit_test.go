// internal/notify/audit_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

type MockRecordInserter struct {
	inserted   []*models.NotificationRecord
	InsertFunc func(ctx context.Context, rec *models.NotificationRecord) error
}

func (m *MockRecordInserter) Insert(ctx context.Context, rec *models.NotificationRecord) error {
	m.inserted = append(m.inserted, rec)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, rec)
	}
	return nil
}

func TestAuditor_Record(t *testing.T) {
	store := &MockRecordInserter{}
	auditor := NewAuditor(store, nil, "notifications", logger.NewTestLogger(t))

	auditor.Record(context.Background(), &models.NotificationRecord{
		ProjectID:  42,
		StatusCode: 30,
		Recipient:  "c@x.com",
		Channel:    models.ChannelEmail,
		Status:     models.DeliveryStatusSent,
	})

	assert.Len(t, store.inserted, 1)
	// A missing ID is assigned before persisting.
	assert.NotEmpty(t, store.inserted[0].ID)
}

func TestAuditor_Record_KeepsExistingID(t *testing.T) {
	store := &MockRecordInserter{}
	auditor := NewAuditor(store, nil, "notifications", logger.NewTestLogger(t))

	auditor.Record(context.Background(), &models.NotificationRecord{ID: "rec-7"})

	assert.Equal(t, "rec-7", store.inserted[0].ID)
}

// Audit trouble is logged, never propagated: Record has no error return
// and must not panic when the log insert fails.
func TestAuditor_Record_InsertFailureSwallowed(t *testing.T) {
	store := &MockRecordInserter{
		InsertFunc: func(ctx context.Context, rec *models.NotificationRecord) error {
			return errors.New("table missing")
		},
	}
	auditor := NewAuditor(store, nil, "notifications", logger.NewTestLogger(t))

	assert.NotPanics(t, func() {
		auditor.Record(context.Background(), &models.NotificationRecord{ProjectID: 42})
	})
}

func TestAuditor_Record_NilCollaborators(t *testing.T) {
	auditor := NewAuditor(nil, nil, "notifications", logger.NewNoOpLogger())

	assert.NotPanics(t, func() {
		auditor.Record(context.Background(), &models.NotificationRecord{ProjectID: 42})
	})
}
