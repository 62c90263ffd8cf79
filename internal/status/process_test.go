// internal/status/process_test.go
package status

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"firepm-api/internal/common/config"
	"firepm-api/internal/common/logger"
	"firepm-api/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockProfileReader struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.Profile, error)
	ListByRoleFunc func(ctx context.Context, role models.Role) ([]*models.Profile, error)
}

func (m *MockProfileReader) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockProfileReader) ListByRole(ctx context.Context, role models.Role) ([]*models.Profile, error) {
	return m.ListByRoleFunc(ctx, role)
}

type MockAuthResolver struct {
	GetUserEmailFunc func(ctx context.Context, userID string) (string, error)
}

func (m *MockAuthResolver) GetUserEmail(ctx context.Context, userID string) (string, error) {
	return m.GetUserEmailFunc(ctx, userID)
}

// ==========================
// Test Helper Functions
// ==========================

func testCatalogEntry(notifyRoles ...string) *models.StatusCatalogEntry {
	return &models.StatusCatalogEntry{
		StatusCode:         30,
		AdminStatusName:    "Awaiting Plan Review",
		ClientStatusName:   "In Review",
		AdminEmailSubject:  "[Internal] {{PROJECT_TITLE}} moved to {{STATUS_NAME}}",
		AdminEmailContent:  "Project {{PROJECT_ID}} for {{CLIENT_FULL_NAME}} is now {{STATUS_NAME}}.",
		ClientEmailSubject: "Your project is {{STATUS_NAME}}",
		ClientEmailContent: "Hi {{CLIENT_FIRST_NAME}}, your project at {{PROJECT_ADDRESS}} is {{STATUS_NAME}}.",
		NotifyRoles:        notifyRoles,
		ButtonText:         "View Project",
		ButtonLink:         "https://example.com/projects/{{PROJECT_ID}}",
		EstTime:            "3-5 business days",
	}
}

func testProjectContext(entry *models.StatusCatalogEntry) *ProjectContext {
	return &ProjectContext{
		Project: &models.Project{
			ID:           42,
			Title:        "Sprinkler Retrofit",
			Address:      "123 Main St",
			AuthorID:     "u1",
			AssignedToID: "s1",
		},
		AuthorProfile: &models.Profile{
			ID:        "u1",
			Email:     "client@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			Phone:     "+15550001111",
			Role:      models.RoleClient,
		},
		AssignedStaff: &models.Profile{
			ID:        "s1",
			Email:     "staff@example.com",
			FirstName: "Sam",
			LastName:  "Rivera",
			Role:      models.RoleStaff,
		},
		StatusEntry: entry,
		Company:     config.CompanyConfig{Name: "Acme Fire Protection"},
		StatusName:  entry.ClientStatusName,
	}
}

func noAdmins() *MockProfileReader {
	return &MockProfileReader{
		ListByRoleFunc: func(ctx context.Context, role models.Role) ([]*models.Profile, error) {
			return nil, nil
		},
	}
}

// ==========================
// Role Branching
// ==========================

func TestProcessor_Process_RoleTemplates(t *testing.T) {
	tests := []struct {
		name            string
		viewerRole      models.Role
		wantStatusName  string
		wantSubject     string
		wantBodyMention string
	}{
		{
			name:            "client sees client templates",
			viewerRole:      models.RoleClient,
			wantStatusName:  "In Review",
			wantSubject:     "Your project is In Review",
			wantBodyMention: "Hi Jane, your project at 123 Main St is In Review.",
		},
		{
			name:            "admin sees admin templates",
			viewerRole:      models.RoleAdmin,
			wantStatusName:  "Awaiting Plan Review",
			wantSubject:     "[Internal] Sprinkler Retrofit moved to Awaiting Plan Review",
			wantBodyMention: "Project 42 for Jane Doe is now Awaiting Plan Review.",
		},
		{
			name:            "staff shares the admin templates",
			viewerRole:      models.RoleStaff,
			wantStatusName:  "Awaiting Plan Review",
			wantSubject:     "[Internal] Sprinkler Retrofit moved to Awaiting Plan Review",
			wantBodyMention: "Project 42 for Jane Doe is now Awaiting Plan Review.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := testCatalogEntry("client")
			pctx := testProjectContext(entry)

			processor := NewProcessor(noAdmins(), nil, logger.NewTestLogger(t))
			out, err := processor.Process(context.Background(), pctx, tt.viewerRole)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatusName, out.StatusName)
			assert.Equal(t, tt.wantSubject, out.Subject)
			assert.Equal(t, tt.wantBodyMention, out.Message)
			assert.Equal(t, "View Project", out.ButtonText)
			assert.Equal(t, "https://example.com/projects/42", out.ButtonLink)
		})
	}
}

// ==========================
// Recipient Derivation
// ==========================

func TestProcessor_DeriveRecipients(t *testing.T) {
	admins := []*models.Profile{
		{ID: "a1", Email: "admin1@example.com", Role: models.RoleAdmin},
		{ID: "a2", Email: "admin2@example.com", Role: models.RoleAdmin},
	}

	tests := []struct {
		name        string
		notifyRoles []string
		staff       bool
		wantEmails  []string
	}{
		{
			name:        "client role resolves to the project author",
			notifyRoles: []string{"client"},
			staff:       true,
			wantEmails:  []string{"client@example.com"},
		},
		{
			name:        "legacy author alias resolves to the project author",
			notifyRoles: []string{"author"},
			staff:       true,
			wantEmails:  []string{"client@example.com"},
		},
		{
			name:        "staff role resolves to the assignee only",
			notifyRoles: []string{"staff"},
			staff:       true,
			wantEmails:  []string{"staff@example.com"},
		},
		{
			name:        "staff role with no assignee yields nobody",
			notifyRoles: []string{"staff"},
			staff:       false,
			wantEmails:  nil,
		},
		{
			name:        "admin role fans out to every admin",
			notifyRoles: []string{"admin"},
			staff:       true,
			wantEmails:  []string{"admin1@example.com", "admin2@example.com"},
		},
		{
			name:        "all roles combined",
			notifyRoles: []string{"admin", "staff", "client"},
			staff:       true,
			wantEmails:  []string{"admin1@example.com", "admin2@example.com", "staff@example.com", "client@example.com"},
		},
		{
			name:        "unknown role skipped",
			notifyRoles: []string{"owner", "client"},
			staff:       true,
			wantEmails:  []string{"client@example.com"},
		},
		{
			name:        "empty notify roles yields nobody",
			notifyRoles: nil,
			staff:       true,
			wantEmails:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := testCatalogEntry(tt.notifyRoles...)
			pctx := testProjectContext(entry)
			if !tt.staff {
				pctx.AssignedStaff = nil
			}

			profiles := &MockProfileReader{
				ListByRoleFunc: func(ctx context.Context, role models.Role) ([]*models.Profile, error) {
					assert.Equal(t, models.RoleAdmin, role)
					return admins, nil
				},
			}

			processor := NewProcessor(profiles, nil, logger.NewTestLogger(t))
			out, err := processor.Process(context.Background(), pctx, models.RoleClient)

			assert.NoError(t, err)
			var emails []string
			for _, r := range out.Recipients {
				emails = append(emails, r.Email)
			}
			assert.Equal(t, tt.wantEmails, emails)
		})
	}
}

func TestProcessor_DeriveRecipients_Dedup(t *testing.T) {
	// The author is also an admin; the same address must appear once even
	// when casing differs between rows.
	entry := testCatalogEntry("admin", "client")
	pctx := testProjectContext(entry)
	pctx.AuthorProfile.Email = "Shared@Example.com"

	profiles := &MockProfileReader{
		ListByRoleFunc: func(ctx context.Context, role models.Role) ([]*models.Profile, error) {
			return []*models.Profile{
				{ID: "a1", Email: "shared@example.com", Role: models.RoleAdmin},
			}, nil
		},
	}

	processor := NewProcessor(profiles, nil, logger.NewTestLogger(t))
	out, err := processor.Process(context.Background(), pctx, models.RoleClient)

	assert.NoError(t, err)
	assert.Len(t, out.Recipients, 1)
	assert.Equal(t, "shared@example.com", out.Recipients[0].Email)
}

func TestProcessor_DeriveRecipients_AdminListFailure(t *testing.T) {
	entry := testCatalogEntry("admin")
	pctx := testProjectContext(entry)

	profiles := &MockProfileReader{
		ListByRoleFunc: func(ctx context.Context, role models.Role) ([]*models.Profile, error) {
			return nil, errors.New("connection reset")
		},
	}

	processor := NewProcessor(profiles, nil, logger.NewTestLogger(t))
	out, err := processor.Process(context.Background(), pctx, models.RoleClient)

	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestProcessor_DeriveRecipients_AdminEmailFromAuthProvider(t *testing.T) {
	entry := testCatalogEntry("admin")
	pctx := testProjectContext(entry)

	profiles := &MockProfileReader{
		ListByRoleFunc: func(ctx context.Context, role models.Role) ([]*models.Profile, error) {
			return []*models.Profile{
				{ID: "a1", Role: models.RoleAdmin}, // no email on the row
				{ID: "a2", Role: models.RoleAdmin},
			}, nil
		},
	}
	auth := &MockAuthResolver{
		GetUserEmailFunc: func(ctx context.Context, userID string) (string, error) {
			if userID == "a1" {
				return "resolved@example.com", nil
			}
			return "", errors.New("user not found")
		},
	}

	processor := NewProcessor(profiles, auth, logger.NewTestLogger(t))
	out, err := processor.Process(context.Background(), pctx, models.RoleClient)

	// a2's lookup fails but only skips that recipient.
	assert.NoError(t, err)
	assert.Len(t, out.Recipients, 1)
	assert.Equal(t, "resolved@example.com", out.Recipients[0].Email)
}
