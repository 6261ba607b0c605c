// Package validate carries user-facing input validation failures from services to handlers.
package validate

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// Error is an input validation failure. Message is safe to return to clients.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// New returns a validation error for field.
func New(field, message string) error {
	return &Error{Field: field, Message: message}
}

// As reports whether err is (or wraps) a validation error and returns it.
func As(err error) (*Error, bool) {
	var v *Error
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether s looks like a deliverable address.
func Email(s string) bool {
	s = strings.TrimSpace(s)
	if !emailPattern.MatchString(s) {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

// Required returns a validation error naming the first empty field, in the order given.
// pairs alternates field name and value.
func Required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return New(pairs[i], pairs[i]+" is required")
		}
	}
	return nil
}
