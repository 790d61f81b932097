package contact

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wolfman30/contact-relay/internal/notify"
)

// Submission is the contact form payload of a single request.
type Submission struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
}

// DecodeSubmission reads a JSON object and picks the form fields by their
// exact key. encoding/json matches struct tags case-insensitively, so the
// object is decoded into a map instead. A field holding anything other than a
// string is left empty.
func DecodeSubmission(r io.Reader) (Submission, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return Submission{}, err
	}
	return Submission{
		FirstName: stringField(fields, "firstName"),
		LastName:  stringField(fields, "lastName"),
		Email:     stringField(fields, "email"),
		Phone:     stringField(fields, "phone"),
		Message:   stringField(fields, "message"),
	}, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

// Subject is the mail subject line for the submission.
func (s Submission) Subject() string {
	return fmt.Sprintf("Contact Form Submission from %s %s", s.FirstName, s.LastName)
}

// Body renders the plain-text mail body. An empty phone is shown as N/A.
func (s Submission) Body() string {
	phone := s.Phone
	if phone == "" {
		phone = "N/A"
	}
	return fmt.Sprintf("Name: %s %s\nEmail: %s\nPhone: %s\nMessage: %s",
		s.FirstName, s.LastName, s.Email, phone, s.Message)
}

// MailMessage builds the outbound message addressed to recipient. The
// submitter is both sender and reply-to.
func (s Submission) MailMessage(recipient string) notify.Message {
	return notify.Message{
		From:    s.Email,
		To:      recipient,
		ReplyTo: s.Email,
		Subject: s.Subject(),
		Body:    s.Body(),
	}
}

// Response is the JSON envelope returned by POST /contact.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
