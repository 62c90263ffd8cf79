// internal/store/projects.go
package store

import (
	"context"
	"database/sql"
	"errors"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/models"
)

// ProjectStore reads and writes project rows.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// GetByID fetches a project row, returning PROJECT_NOT_FOUND when absent.
func (s *ProjectStore) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT id, title, address, author_id, COALESCE(assigned_to_id, ''), status, created_at, updated_at
		FROM projects WHERE id = $1`

	var p models.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Address, &p.AuthorID, &p.AssignedToID,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonerrors.NewProjectNotFoundError(id)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("project", err)
	}
	return &p, nil
}

// UpdateStatus persists the new status code. Last write wins: concurrent
// updates on the same project are not coordinated.
func (s *ProjectStore) UpdateStatus(ctx context.Context, id int64, status int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return commonerrors.NewStatusUpdateFailedError(id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return commonerrors.NewStatusUpdateFailedError(id, err)
	}
	if affected == 0 {
		return commonerrors.NewProjectNotFoundError(id)
	}
	return nil
}
