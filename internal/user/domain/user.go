package domain

import (
	"errors"
	"time"
)

// User is the core user entity. PasswordHash is the stored bcrypt digest of
// the user's credential; it never leaves the auth core — Sanitize strips it
// before a record is returned to any caller.
type User struct {
	ID           string
	Email        string
	TenantID     string
	FirstName    string
	LastName     string
	Status       UserStatus
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.TenantID == "" {
		return errors.New("tenant id is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// Sanitize returns a copy of the user with the credential hash removed.
// The sanitized copy is what login returns to callers.
func (u *User) Sanitize() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}
