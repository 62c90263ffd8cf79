// internal/models/profile.go
package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles. All role strings coming off the
// wire or out of the database go through ParseRole exactly once.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleClient Role = "client"
)

// ParseRole canonicalizes a raw role string. "author" is a legacy alias
// for the client role kept for old status-catalog rows.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, nil
	case "staff":
		return RoleStaff, nil
	case "client", "author":
		return RoleClient, nil
	default:
		return "", fmt.Errorf("unknown role: %q", raw)
	}
}

// UsesAdminTemplates reports whether the role sees the admin-facing
// status names and email templates. Admin and staff are intentionally
// identical here; client is the only other branch.
func (r Role) UsesAdminTemplates() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Profile is a user profile row. Email may be empty when the address
// lives only in the auth provider; callers resolve it before use.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        Role   `json:"role"`
}

// FullName joins first and last name, tolerating either being empty.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
