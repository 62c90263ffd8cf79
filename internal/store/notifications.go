// internal/store/notifications.go
package store

import (
	"context"
	"database/sql"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/models"
)

// NotificationLogStore persists one audit row per delivery attempt.
type NotificationLogStore struct {
	db *sql.DB
}

func NewNotificationLogStore(db *sql.DB) *NotificationLogStore {
	return &NotificationLogStore{db: db}
}

// Insert records a delivery attempt, sent or failed.
func (s *NotificationLogStore) Insert(ctx context.Context, rec *models.NotificationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_log (id, project_id, status_code, recipient, channel, subject, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.ProjectID, rec.StatusCode, rec.Recipient, rec.Channel,
		rec.Subject, rec.Status, rec.Error, rec.SentAt,
	)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("notification_log", err)
	}
	return nil
}

// RecentForProject returns the latest delivery attempts for a project,
// newest first.
func (s *NotificationLogStore) RecentForProject(ctx context.Context, projectID int64, limit int) ([]*models.NotificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, status_code, recipient, channel, subject, status, COALESCE(error, ''), sent_at
		FROM notification_log WHERE project_id = $1 ORDER BY sent_at DESC LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("notification_log", err)
	}
	defer rows.Close()

	var records []*models.NotificationRecord
	for rows.Next() {
		var rec models.NotificationRecord
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.StatusCode, &rec.Recipient,
			&rec.Channel, &rec.Subject, &rec.Status, &rec.Error, &rec.SentAt); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("notification_log", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("notification_log", err)
	}
	return records, nil
}
