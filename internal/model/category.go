package model

import "time"

// Category is an item category. Categories are fixed rows seeded at
// migration time; items reference them by id.
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact message types.
const (
	ContactTypeComplaint   = "complaint"
	ContactTypeIssue       = "issue"
	ContactTypeSuggestion  = "suggestion"
	ContactTypePartnership = "partnership"
)

// ValidContactType reports whether t is one of the accepted message types.
func ValidContactType(t string) bool {
	switch t {
	case ContactTypeComplaint, ContactTypeIssue, ContactTypeSuggestion, ContactTypePartnership:
		return true
	}
	return false
}
