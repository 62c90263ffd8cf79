// internal/models/project.go
package models

import "time"

// Project is a fire-protection engineering project tracked through the
// status workflow.
type Project struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Address      string    `json:"address"`
	AuthorID     string    `json:"authorId"`
	AssignedToID string    `json:"assignedToId,omitempty"`
	Status       int       `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Assigned reports whether the project has a staff member assigned.
func (p *Project) Assigned() bool {
	return p.AssignedToID != ""
}
