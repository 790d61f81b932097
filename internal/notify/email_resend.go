package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	emails    resendEmails
	fromEmail string
	logger    *logging.Logger
}

// ResendConfig holds configuration for Resend.
type ResendConfig struct {
	APIKey    string
	FromEmail string
}

// NewResendSender creates a Resend sender with the given API key.
func NewResendSender(cfg ResendConfig, logger *logging.Logger) *ResendSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResendSender{
		emails:    resend.NewClient(cfg.APIKey).Emails,
		fromEmail: cfg.FromEmail,
		logger:    logger,
	}
}

// Send sends an email via the Resend API.
func (r *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if r.emails == nil {
		return "", fmt.Errorf("notify: resend client not configured")
	}
	params := &resend.SendEmailRequest{
		From:    senderAddress(r.fromEmail, msg),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
		ReplyTo: msg.ReplyTo,
	}

	sent, err := r.emails.SendWithContext(ctx, params)
	if err != nil {
		r.logger.Error("resend send failed", "error", err, "to", msg.To)
		return "", fmt.Errorf("notify: resend send failed: %w", err)
	}

	r.logger.Info("email sent via resend", "to", msg.To, "subject", msg.Subject, "message_id", sent.Id)
	return sent.Id, nil
}

var _ MailSender = (*ResendSender)(nil)
