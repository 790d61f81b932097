package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

// implicitTLSPort is the SMTPS port; every other port negotiates STARTTLS.
const implicitTLSPort = 465

const smtpDialTimeout = 30 * time.Second

var errAuthUnsupported = errors.New("smtp: server doesn't support AUTH")

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// SMTPSender delivers mail through an authenticated SMTP relay such as Gmail.
type SMTPSender struct {
	host      string
	addr      string
	username  string
	password  string
	fromEmail string
	dial      dialFunc
	now       func() time.Time
	logger    *logging.Logger
}

// SMTPConfig holds configuration for the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// FromEmail overrides the envelope and header sender when set.
	FromEmail string
}

// NewSMTPSender creates an SMTP sender. Credentials are not checked until the
// first send, where the server rejects them.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if logger == nil {
		logger = logging.Default()
	}
	dialer := &net.Dialer{Timeout: smtpDialTimeout}
	dial := dialer.DialContext
	if cfg.Port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig(cfg.Host)}
		dial = tlsDialer.DialContext
	}
	return &SMTPSender{
		host:      cfg.Host,
		addr:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.FromEmail,
		dial:      dial,
		now:       time.Now,
		logger:    logger,
	}
}

func tlsConfig(host string) *tls.Config {
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

// Send composes an RFC 5322 message and hands it to the relay. Canceling ctx
// aborts the SMTP conversation.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	from := senderAddress(s.fromEmail, msg)
	raw, messageID, err := s.compose(from, msg)
	if err != nil {
		return "", fmt.Errorf("notify: compose smtp message: %w", err)
	}

	if err := s.deliver(ctx, from, []string{msg.To}, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		attrs := []any{"error", err, "to", msg.To, "addr", s.addr}
		var smtpErr *smtp.SMTPError
		if errors.As(err, &smtpErr) {
			attrs = append(attrs, "smtp_code", smtpErr.Code, "smtp_response", smtpErr.Message)
			s.logger.Error("smtp send failed", attrs...)
			return "", &ProviderError{Provider: "smtp", StatusCode: smtpErr.Code, Body: smtpErr.Message}
		}
		s.logger.Error("smtp send failed", attrs...)
		return "", fmt.Errorf("notify: smtp send failed: %w", err)
	}

	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject, "message_id", messageID)
	return messageID, nil
}

func (s *SMTPSender) deliver(ctx context.Context, from string, to []string, raw []byte) error {
	conn, err := s.dial(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConfig(s.host)); err != nil {
			return err
		}
	}
	if s.username != "" || s.password != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errAuthUnsupported
		}
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, bytes.NewReader(raw)); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTPSender) compose(from string, msg Message) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	if msg.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Address: msg.ReplyTo}})
	}
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", err
	}
	id, err := h.MessageID()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "<" + id + ">", nil
}

var _ MailSender = (*SMTPSender)(nil)
