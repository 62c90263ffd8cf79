// internal/status/template.go
package status

import (
	"strconv"
	"strings"

	"firepm-api/internal/common/config"
	"firepm-api/internal/models"
)

// ProjectContext is the ephemeral aggregate built per status-change
// request. It is constructed fresh by the aggregator, consumed by the
// processor, and never persisted.
type ProjectContext struct {
	Project       *models.Project
	AuthorProfile *models.Profile
	AssignedStaff *models.Profile // nil when the project is unassigned
	StatusEntry   *models.StatusCatalogEntry
	Company       config.CompanyConfig

	// StatusName is the role-selected display label. The aggregator
	// seeds it with the client-facing name; the processor overwrites it
	// for admin/staff viewers before substitution runs.
	StatusName string
}

// tokenResolvers is the fixed mapping from {{TOKEN}} names to context
// values. Tokens are case-sensitive; resolvers must be nil-safe and
// return "" for missing values, never a literal "null".
var tokenResolvers = map[string]func(*ProjectContext) string{
	"PROJECT_ID": func(c *ProjectContext) string {
		if c.Project == nil {
			return ""
		}
		return strconv.FormatInt(c.Project.ID, 10)
	},
	"PROJECT_TITLE": func(c *ProjectContext) string {
		if c.Project == nil {
			return ""
		}
		return c.Project.Title
	},
	"PROJECT_ADDRESS": func(c *ProjectContext) string {
		if c.Project == nil {
			return ""
		}
		return c.Project.Address
	},
	"STATUS_NAME": func(c *ProjectContext) string {
		return c.StatusName
	},
	"EST_TIME": func(c *ProjectContext) string {
		if c.StatusEntry == nil {
			return ""
		}
		return c.StatusEntry.EstTime
	},
	"CLIENT_NAME": func(c *ProjectContext) string {
		if c.AuthorProfile == nil {
			return ""
		}
		return c.AuthorProfile.CompanyName
	},
	"CLIENT_FIRST_NAME": func(c *ProjectContext) string {
		if c.AuthorProfile == nil {
			return ""
		}
		return c.AuthorProfile.FirstName
	},
	"CLIENT_LAST_NAME": func(c *ProjectContext) string {
		if c.AuthorProfile == nil {
			return ""
		}
		return c.AuthorProfile.LastName
	},
	"CLIENT_FULL_NAME": func(c *ProjectContext) string {
		if c.AuthorProfile == nil {
			return ""
		}
		return c.AuthorProfile.FullName()
	},
	"CLIENT_EMAIL": func(c *ProjectContext) string {
		if c.AuthorProfile == nil {
			return ""
		}
		return c.AuthorProfile.Email
	},
	"CLIENT_PHONE": func(c *ProjectContext) string {
		if c.AuthorProfile == nil {
			return ""
		}
		return c.AuthorProfile.Phone
	},
	"STAFF_NAME": func(c *ProjectContext) string {
		if c.AssignedStaff == nil {
			return ""
		}
		return c.AssignedStaff.FullName()
	},
	"COMPANY_NAME": func(c *ProjectContext) string {
		return c.Company.Name
	},
	"COMPANY_ADDRESS": func(c *ProjectContext) string {
		return c.Company.Address
	},
	"COMPANY_PHONE": func(c *ProjectContext) string {
		return c.Company.Phone
	},
	"COMPANY_LOGO": func(c *ProjectContext) string {
		return c.Company.LogoURL
	},
	"COMPANY_WEBSITE": func(c *ProjectContext) string {
		return c.Company.Website
	},
}

// Substitute replaces every {{TOKEN}} marker in the template with its
// resolved value. Unrecognized tokens are stripped so no marker survives
// into delivered output; the result is therefore a fixed point of
// Substitute. Values are inserted verbatim — templates legitimately carry
// inline HTML, so no escaping happens here.
func Substitute(tmpl string, ctx *ProjectContext) string {
	out, _ := substituteCollect(tmpl, ctx)
	return out
}

// substituteCollect is Substitute plus the list of unrecognized tokens it
// stripped, so callers can surface template bugs in the logs.
func substituteCollect(tmpl string, ctx *ProjectContext) (string, []string) {
	var b strings.Builder
	var unknown []string

	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			// Unterminated marker, leave the tail as-is.
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:start])
		token := rest[start+2 : start+2+end]
		if resolver, ok := tokenResolvers[token]; ok {
			b.WriteString(resolver(ctx))
		} else {
			unknown = append(unknown, token)
		}
		rest = rest[start+2+end+2:]
	}

	return b.String(), unknown
}
