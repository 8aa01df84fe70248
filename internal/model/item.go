package model

import "time"

// Item represents a listed item offered for giving away.
type Item struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CategoryID     int64     `json:"category_id"`
	PickupLocation string    `json:"pickup_location,omitempty"`
	Status         string    `json:"status"`
	IsLocked       bool      `json:"is_locked"`
	IsCompleted    bool      `json:"is_completed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	CategorySlug string `json:"category,omitempty"`
}

// Item statuses.
const (
	ItemStatusAvailable = "available"
	ItemStatusApproved  = "approved"
	ItemStatusCompleted = "completed"
)

// ItemImage represents one uploaded photo of an item. The image bytes live in
// the database and are served separately, never marshalled here.
type ItemImage struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Mime      string    `json:"mime"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxImagesPerItem caps the number of photos an item can carry.
const MaxImagesPerItem = 3
