package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/contact-relay/internal/notify"
	"github.com/wolfman30/contact-relay/internal/observability/metrics"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

var contactTracer = otel.Tracer("contact-relay.internal.contact")

// Client-visible messages.
const (
	WelcomeMessage       = "Welcome to the contact relay API!"
	MsgSent              = "Message sent successfully"
	MsgMissingFields     = "All fields are required."
	MsgInvalidEmail      = "Invalid email format."
	MsgInvalidPhone      = "Invalid phone number format."
	MsgSendFailed        = "Failed to send message. Please try again later."
	maxBodyBytes         = 100 << 10
	defaultProviderLabel = "unknown"
)

var validationMessages = map[error]string{
	ErrMissingFields: MsgMissingFields,
	ErrInvalidEmail:  MsgInvalidEmail,
	ErrInvalidPhone:  MsgInvalidPhone,
}

// Config holds handler configuration
type Config struct {
	// Recipient receives every relayed submission.
	Recipient string
	// Provider labels send metrics and spans.
	Provider string
	Metrics  *metrics.ContactMetrics
}

// Handler handles HTTP requests for the contact form
type Handler struct {
	sender    notify.MailSender
	recipient string
	provider  string
	metrics   *metrics.ContactMetrics
	logger    *logging.Logger
}

// NewHandler creates a new contact handler
func NewHandler(sender notify.MailSender, cfg Config, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Provider == "" {
		cfg.Provider = defaultProviderLabel
	}
	return &Handler{
		sender:    sender,
		recipient: cfg.Recipient,
		provider:  cfg.Provider,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Welcome handles GET / requests
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeMessage))
}

// Health handles GET /health requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Submit handles POST /contact requests. It validates the submission and
// relays it as a single email; failed sends are not retried.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sub, err := DecodeSubmission(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("failed to decode contact request", "error", err, "remote_ip", r.RemoteAddr)
		h.reject(w, ErrMissingFields)
		return
	}

	h.logger.Info("contact submission received",
		"first_name", sub.FirstName,
		"last_name", sub.LastName,
		"email", sub.Email,
		"phone", sub.Phone,
		"message_length", len(sub.Message),
		"remote_ip", r.RemoteAddr,
	)

	if err := Validate(sub); err != nil {
		h.logger.Info("contact submission rejected", "reason", err.Error(), "remote_ip", r.RemoteAddr)
		h.reject(w, err)
		return
	}

	messageID, err := h.dispatch(r.Context(), sub.MailMessage(h.recipient))
	if err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeFailed)
		writeJSON(w, http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: MsgSendFailed})
		return
	}

	h.metrics.ObserveSubmission(metrics.OutcomeSent)
	h.logger.Info("contact message sent", "message_id", messageID, "provider", h.provider)
	writeJSON(w, http.StatusOK, Response{Code: http.StatusOK, Message: MsgSent})
}

// dispatch makes exactly one send attempt.
func (h *Handler) dispatch(ctx context.Context, msg notify.Message) (string, error) {
	ctx, span := contactTracer.Start(ctx, "contact.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mail.provider", h.provider),
			attribute.String("mail.subject", msg.Subject),
		),
	)
	defer span.End()

	start := time.Now()
	messageID, err := h.sender.Send(ctx, msg)
	h.metrics.ObserveSendLatency(h.provider, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mail send failed")

		attrs := []any{"error", err, "provider", h.provider, "to", msg.To}
		var provErr *notify.ProviderError
		if errors.As(err, &provErr) {
			attrs = append(attrs, "provider_status", provErr.StatusCode, "provider_response", provErr.Body)
		}
		h.logger.Error("failed to send contact message", attrs...)
		return "", err
	}

	span.SetAttributes(attribute.String("mail.message_id", messageID))
	return messageID, nil
}

func (h *Handler) reject(w http.ResponseWriter, err error) {
	h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
	msg, ok := validationMessages[err]
	if !ok {
		msg = MsgMissingFields
	}
	writeJSON(w, http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
