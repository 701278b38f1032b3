package notify

import (
	"context"
	"fmt"

	awstypes "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"diagnosis-api/internal/common/aws"
	"diagnosis-api/internal/common/logger"
	"diagnosis-api/internal/common/metrics"
)

// EmailNotifier forwards consult requests to the sales inbox via SES.
// Optional: when not enabled the consult flow relies on the engine-side
// mail delivery alone.
type EmailNotifier struct {
	client    *aws.SESClient
	fromEmail string
	toEmail   string
	logger    logger.Logger
}

func NewEmailNotifier(client *aws.SESClient, fromEmail, toEmail string, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		client:    client,
		fromEmail: fromEmail,
		toEmail:   toEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "email-notifier"}),
	}
}

func (n *EmailNotifier) Configured() bool {
	return n != nil && n.client != nil && n.fromEmail != "" && n.toEmail != ""
}

// NotifyConsult sends the consult-lead email. The body carries only the
// fields the sales team needs to call back.
func (n *EmailNotifier) NotifyConsult(ctx context.Context, payload map[string]interface{}) error {
	company := orDash(payload["company_name"])
	contact := orDash(payload["contact_name"])
	email := orDash(payload["email"])
	message := orDash(payload["message"])

	subject := fmt.Sprintf("【無料相談】%s %s様", company, contact)
	body := fmt.Sprintf("会社名: %s\n担当者: %s\n連絡先: %s\n\n相談内容:\n%s\n", company, contact, email, message)

	input := &ses.SendEmailInput{
		Source: awstypes.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{n.toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: awstypes.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: awstypes.String(body)},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		metrics.NotificationsSent.WithLabelValues("email", "error").Inc()
		return fmt.Errorf("consult email send failed: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues("email", "success").Inc()
	return nil
}
