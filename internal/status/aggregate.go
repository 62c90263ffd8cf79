// internal/status/aggregate.go
package status

import (
	"context"

	"firepm-api/internal/common/config"
	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

// ProjectReader is the slice of the project store the aggregator needs.
type ProjectReader interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

// ProfileReader is the slice of the profile store the pipeline needs.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.Profile, error)
}

// CatalogReader is the slice of the status catalog store the pipeline needs.
type CatalogReader interface {
	GetByCode(ctx context.Context, code int) (*models.StatusCatalogEntry, error)
}

// AuthEmailResolver looks up an email address in the auth provider when a
// profile row does not carry one.
type AuthEmailResolver interface {
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// Aggregator assembles a ProjectContext for a (projectId, targetStatus)
// pair. Every required lookup fails closed: no partial context ever
// reaches substitution or dispatch.
type Aggregator struct {
	projects ProjectReader
	profiles ProfileReader
	catalog  CatalogReader
	auth     AuthEmailResolver
	company  config.CompanyConfig
	logger   logger.Logger
}

func NewAggregator(projects ProjectReader, profiles ProfileReader, catalog CatalogReader,
	auth AuthEmailResolver, company config.CompanyConfig, log logger.Logger) *Aggregator {
	return &Aggregator{
		projects: projects,
		profiles: profiles,
		catalog:  catalog,
		auth:     auth,
		company:  company,
		logger:   log,
	}
}

// Aggregate builds the context for a status change. All fetches are
// independent reads; the aggregate is consumed immediately, so there is
// no transactional requirement.
func (a *Aggregator) Aggregate(ctx context.Context, projectID int64, targetStatus int) (*ProjectContext, error) {
	project, err := a.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	author, err := a.profiles.GetByID(ctx, project.AuthorID)
	if err != nil {
		return nil, err
	}

	// The author's address gates recipient resolution: resolve it now and
	// fail closed rather than notifying an unknown recipient later.
	if err := a.resolveEmail(ctx, author); err != nil {
		return nil, err
	}
	if author.Email == "" {
		return nil, commonerrors.NewProfileNotFoundError(author.ID)
	}

	entry, err := a.catalog.GetByCode(ctx, targetStatus)
	if err != nil {
		return nil, err
	}

	pctx := &ProjectContext{
		Project:       project,
		AuthorProfile: author,
		StatusEntry:   entry,
		Company:       a.company,
		StatusName:    entry.ClientStatusName,
	}

	// Assigned staff is optional: a missing assignee never blocks the
	// status change.
	if project.Assigned() {
		staff, err := a.profiles.GetByID(ctx, project.AssignedToID)
		if err != nil {
			a.logger.Warn("assigned staff profile missing", map[string]interface{}{
				"projectId":    projectID,
				"assignedToId": project.AssignedToID,
			})
		} else {
			if err := a.resolveEmail(ctx, staff); err != nil {
				a.logger.Warn("assigned staff email unresolved", map[string]interface{}{
					"projectId": projectID,
					"staffId":   staff.ID,
					"error":     err.Error(),
				})
			}
			pctx.AssignedStaff = staff
		}
	}

	return pctx, nil
}

// resolveEmail fills in a profile's email from the auth provider when the
// profile row does not duplicate it.
func (a *Aggregator) resolveEmail(ctx context.Context, p *models.Profile) error {
	if p.Email != "" || a.auth == nil {
		return nil
	}

	email, err := a.auth.GetUserEmail(ctx, p.ID)
	if err != nil {
		return commonerrors.NewAuthEmailLookupFailedError(p.ID, err)
	}
	p.Email = email
	return nil
}
