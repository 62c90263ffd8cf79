// internal/store/profiles.go
package store

import (
	"context"
	"database/sql"
	"errors"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/models"
)

// ProfileStore reads user profile rows. Email may be empty on a row when
// the address lives only in the auth provider.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		COALESCE(company_name, ''), COALESCE(phone, ''), role`

// GetByID fetches a profile row, returning PROFILE_NOT_FOUND when absent.
func (s *ProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonerrors.NewProfileNotFoundError(id)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("profile", err)
	}
	return p, nil
}

// ListByRole returns every profile holding the given role.
func (s *ProfileStore) ListByRole(ctx context.Context, role models.Role) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(role) = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("profile", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("profile", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("profile", err)
	}
	return profiles, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProfile scans one profile row, canonicalizing the stored role
// string. Rows predate the closed role enum and are inconsistently cased.
func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var rawRole string
	if err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.CompanyName, &p.Phone, &rawRole); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	p.Role = role
	return &p, nil
}
