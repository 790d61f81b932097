package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

// MailSender is the mail transport capability. Implementations deliver one
// message per call and return the provider's message identifier.
// Implementations can be swapped (SMTP, SendGrid, SES, Resend) without changing callers.
type MailSender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Message represents an email to be sent.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Body    string // Plain text body
}

// ProviderError is returned when a provider answers with a failure payload.
// Body keeps the raw response so callers can log it.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("notify: %s returned status %d", e.Provider, e.StatusCode)
}

// senderAddress picks the configured sender identity when one is set and
// falls back to the message's own From.
func senderAddress(configured string, msg Message) string {
	if configured != "" {
		return configured
	}
	return msg.From
}

// StubSender is a no-op sender for local development or when email is disabled.
type StubSender struct {
	logger *logging.Logger
}

// NewStubSender creates a stub sender that logs but doesn't send.
func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

// Send logs the email and returns a generated id.
func (s *StubSender) Send(ctx context.Context, msg Message) (string, error) {
	id := "<" + uuid.NewString() + "@stub.local>"
	s.logger.Info("stub mail sender: would send email", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return id, nil
}

var _ MailSender = (*StubSender)(nil)
