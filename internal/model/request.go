package model

import "time"

// Request links a requester to an item and tracks the exchange handshake.
type Request struct {
	ID                 int64      `json:"id"`
	ItemID             int64      `json:"item_id"`
	RequesterID        int64      `json:"requester_id"`
	Status             string     `json:"status"`
	OwnerVisible       bool       `json:"owner_visible"`
	RequesterVisible   bool       `json:"requester_visible"`
	OwnerConfirmed     bool       `json:"owner_confirmed"`
	RequesterConfirmed bool       `json:"requester_confirmed"`
	CreatedAt          time.Time  `json:"created_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`

	// Joined fields (not always populated).
	ItemName        string `json:"item_name,omitempty"`
	ItemOwnerID     int64  `json:"item_owner_id,omitempty"`
	ItemIsLocked    bool   `json:"item_is_locked,omitempty"`
	ItemIsCompleted bool   `json:"item_is_completed,omitempty"`

	// Counterpart contact, populated only when the matching visibility
	// flag is set.
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// Request statuses. Pending and approved are the active (non-terminal)
// states; an item may carry at most one active request per requester.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)
