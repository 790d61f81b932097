package contact

import (
	"errors"
	"regexp"
)

var (
	// ErrMissingFields is returned when a required field is absent or empty
	ErrMissingFields = errors.New("all fields are required")

	// ErrInvalidEmail is returned when the email does not look like user@host.tld
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPhone is returned when a provided phone has characters other
	// than digits, spaces, hyphens and a leading plus
	ErrInvalidPhone = errors.New("invalid phone number format")
)

// whitespace matches what browsers treat as \s: ASCII whitespace, vertical
// tab, Unicode space separators, line/paragraph separators and BOM.
const whitespace = `\s\x0B\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// The checks are intentionally loose; they are not RFC validators.
var (
	emailPattern = regexp.MustCompile(`^[^` + whitespace + `@]+@[^` + whitespace + `@]+\.[^` + whitespace + `]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9` + whitespace + `\-]+$`)
)

// Validate checks required fields, then email, then phone. Values are not
// trimmed or otherwise normalized.
func Validate(s Submission) error {
	if s.FirstName == "" || s.LastName == "" || s.Email == "" || s.Message == "" {
		return ErrMissingFields
	}
	if !ValidEmail(s.Email) {
		return ErrInvalidEmail
	}
	if s.Phone != "" && !ValidPhone(s.Phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone reports whether phone is an optional leading plus followed by
// digits, whitespace and hyphens.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
