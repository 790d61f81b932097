package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    sendGridClient
	fromEmail string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey string
	// FromEmail must be a verified sender. When empty the submitter address is used.
	FromEmail string
}

// NewSendGridSender creates a new SendGrid email sender. A missing API key is
// not rejected here; SendGrid answers 401 at send time.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail("", senderAddress(s.fromEmail, msg))
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmailPlainText(from, msg.Subject, to, msg.Body)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return "", fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return "", &ProviderError{Provider: "sendgrid", StatusCode: response.StatusCode, Body: response.Body}
	}

	var messageID string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode, "message_id", messageID)
	return messageID, nil
}

var _ MailSender = (*SendGridSender)(nil)
