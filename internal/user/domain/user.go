package domain

import (
	"errors"
	"strings"
	"time"
)

// User is an account that can sign in: a tenant owner or a platform admin.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// Validate validates the user for persistence and normalizes the email.
// Returns an error describing the first validation failure.
func (u *User) Validate() error {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
