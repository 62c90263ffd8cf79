// internal/notify/mailer.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/models"
)

// SESService is the slice of the SES client the mailer uses, kept as an
// interface for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer delivers notification jobs as SES emails.
type SESMailer struct {
	client SESService
	from   string
}

func NewSESMailer(client SESService, fromEmail string) *SESMailer {
	return &SESMailer{client: client, from: fromEmail}
}

// SendEmail delivers one job. The body is sent as HTML; catalog templates
// legitimately contain inline markup.
func (m *SESMailer) SendEmail(ctx context.Context, job *models.NotificationJob) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{job.RecipientEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(job.Subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(renderBody(job))},
			},
		},
		Source: aws.String(m.from),
	}

	if job.SkipTracking {
		input.Tags = []types.MessageTag{
			{Name: aws.String("skip_tracking"), Value: aws.String("true")},
		}
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return commonerrors.NewNotificationSendFailedError(models.ChannelEmail, err)
	}
	return nil
}

// renderBody appends the call-to-action button when the catalog entry
// provides one. Substitution already ran; this is pure assembly.
func renderBody(job *models.NotificationJob) string {
	if job.ButtonText == "" || job.ButtonLink == "" {
		return job.BodyHTML
	}
	return fmt.Sprintf(`%s<p><a href="%s">%s</a></p>`, job.BodyHTML, job.ButtonLink, job.ButtonText)
}
