// internal/status/process.go
package status

import (
	"context"
	"strings"

	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

// Recipient is one resolved notification target.
type Recipient struct {
	Email string
	Phone string
}

// ProcessOutput is the role-selected, fully substituted message plus the
// deduplicated recipient list.
type ProcessOutput struct {
	StatusName string
	Subject    string
	Message    string
	ButtonText string
	ButtonLink string
	Recipients []Recipient
}

// Processor applies role-based template selection and derives the
// recipient list from the catalog entry's notify roles.
type Processor struct {
	profiles ProfileReader
	auth     AuthEmailResolver
	logger   logger.Logger
}

func NewProcessor(profiles ProfileReader, auth AuthEmailResolver, log logger.Logger) *Processor {
	return &Processor{
		profiles: profiles,
		auth:     auth,
		logger:   log,
	}
}

// Process builds the outbound message for the viewer role. Admin and
// staff share the admin templates; client gets the client templates —
// that binary split is the only role branching in the pipeline.
func (p *Processor) Process(ctx context.Context, pctx *ProjectContext, viewerRole models.Role) (*ProcessOutput, error) {
	entry := pctx.StatusEntry

	pctx.StatusName = entry.StatusName(viewerRole)
	subjectTmpl, contentTmpl := entry.EmailTemplates(viewerRole)

	out := &ProcessOutput{
		StatusName: pctx.StatusName,
		Subject:    p.substitute(subjectTmpl, pctx),
		Message:    p.substitute(contentTmpl, pctx),
		ButtonText: p.substitute(entry.ButtonText, pctx),
		ButtonLink: p.substitute(entry.ButtonLink, pctx),
	}

	recipients, err := p.deriveRecipients(ctx, pctx)
	if err != nil {
		return nil, err
	}
	out.Recipients = recipients

	return out, nil
}

// substitute runs the engine and surfaces any stripped unknown tokens,
// so broken catalog templates show up in the logs instead of silently
// producing odd emails.
func (p *Processor) substitute(tmpl string, pctx *ProjectContext) string {
	result, unknown := substituteCollect(tmpl, pctx)
	if len(unknown) > 0 {
		p.logger.Warn("template contains unrecognized tokens", map[string]interface{}{
			"statusCode": pctx.StatusEntry.StatusCode,
			"tokens":     unknown,
		})
	}
	return result
}

// deriveRecipients expands the catalog entry's notify roles:
//   - "admin"  -> every profile with the admin role
//   - "staff"  -> the project's assigned staff only, not all staff
//   - "client"/"author" -> the project author
//
// The result is deduplicated by lowercased email.
func (p *Processor) deriveRecipients(ctx context.Context, pctx *ProjectContext) ([]Recipient, error) {
	var recipients []Recipient
	seen := make(map[string]bool)

	add := func(email, phone string) {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		recipients = append(recipients, Recipient{Email: email, Phone: phone})
	}

	for _, rawRole := range pctx.StatusEntry.NotifyRoles {
		role, err := models.ParseRole(rawRole)
		if err != nil {
			p.logger.Warn("catalog entry names unknown notify role", map[string]interface{}{
				"statusCode": pctx.StatusEntry.StatusCode,
				"role":       rawRole,
			})
			continue
		}

		switch role {
		case models.RoleAdmin:
			admins, err := p.profiles.ListByRole(ctx, models.RoleAdmin)
			if err != nil {
				return nil, err
			}
			for _, admin := range admins {
				if err := p.resolveEmail(ctx, admin); err != nil {
					p.logger.Warn("admin email unresolved, skipping recipient", map[string]interface{}{
						"profileId": admin.ID,
						"error":     err.Error(),
					})
					continue
				}
				add(admin.Email, admin.Phone)
			}

		case models.RoleStaff:
			if pctx.AssignedStaff != nil {
				add(pctx.AssignedStaff.Email, pctx.AssignedStaff.Phone)
			}

		case models.RoleClient:
			add(pctx.AuthorProfile.Email, pctx.AuthorProfile.Phone)
		}
	}

	return recipients, nil
}

func (p *Processor) resolveEmail(ctx context.Context, profile *models.Profile) error {
	if profile.Email != "" || p.auth == nil {
		return nil
	}
	email, err := p.auth.GetUserEmail(ctx, profile.ID)
	if err != nil {
		return err
	}
	profile.Email = email
	return nil
}
