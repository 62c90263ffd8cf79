// internal/notify/sms.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonerrors "firepm-api/internal/common/errors"
	"firepm-api/internal/models"
)

// SNSService is the slice of the SNS client the messenger uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSMessenger delivers the urgent-status SMS channel.
type SNSMessenger struct {
	client SNSService
}

func NewSNSMessenger(client SNSService) *SNSMessenger {
	return &SNSMessenger{client: client}
}

func (m *SNSMessenger) SendSMS(ctx context.Context, phone, message string) error {
	_, err := m.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError(models.ChannelSMS, err)
	}
	return nil
}
