package model

import (
	"fmt"
	"time"
)

// User represents an authentication account.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Profile holds the user-facing identity attached to an account. Name and
// phone are disclosed to an exchange counterpart only once the matching
// visibility flag on a request is set.
type Profile struct {
	UserID    int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Campus    string    `json:"campus"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
