// internal/models/status.go
package models

// StatusCatalogEntry is one row of the status catalog: per-role display
// labels and email templates for an integer status code. Rows are seeded
// by the admin UI and read-only from the pipeline's perspective; a code
// is immutable once a project references it.
type StatusCatalogEntry struct {
	StatusCode         int      `json:"statusCode"`
	AdminStatusName    string   `json:"adminStatusName"`
	ClientStatusName   string   `json:"clientStatusName"`
	AdminEmailSubject  string   `json:"adminEmailSubject"`
	AdminEmailContent  string   `json:"adminEmailContent"`
	ClientEmailSubject string   `json:"clientEmailSubject"`
	ClientEmailContent string   `json:"clientEmailContent"`
	NotifyRoles        []string `json:"notifyRoles"`
	ButtonText         string   `json:"buttonText"`
	ButtonLink         string   `json:"buttonLink"`
	EstTime            string   `json:"estTime"`
	Urgent             bool     `json:"urgent"`
}

// StatusName returns the display label for the given viewer role.
func (e *StatusCatalogEntry) StatusName(role Role) string {
	if role.UsesAdminTemplates() {
		return e.AdminStatusName
	}
	return e.ClientStatusName
}

// EmailTemplates returns (subject, content) for the given viewer role.
func (e *StatusCatalogEntry) EmailTemplates(role Role) (string, string) {
	if role.UsesAdminTemplates() {
		return e.AdminEmailSubject, e.AdminEmailContent
	}
	return e.ClientEmailSubject, e.ClientEmailContent
}
