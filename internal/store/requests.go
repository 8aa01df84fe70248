package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deklata/deklata/internal/model"
)

// GetRequest returns a request by ID with its item joined, or nil if it does
// not exist.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	r := &model.Request{}
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.item_id, r.requester_id, r.status,
		        r.owner_visible, r.requester_visible, r.owner_confirmed, r.requester_confirmed,
		        r.created_at, r.approved_at,
		        i.name, i.owner_id, i.is_locked, i.is_completed
		 FROM requests r JOIN items i ON i.id = r.item_id
		 WHERE r.id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.RequesterID, &r.Status,
		&r.OwnerVisible, &r.RequesterVisible, &r.OwnerConfirmed, &r.RequesterConfirmed,
		&r.CreatedAt, &r.ApprovedAt,
		&r.ItemName, &r.ItemOwnerID, &r.ItemIsLocked, &r.ItemIsCompleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// GetActiveRequest returns the caller's pending or approved request on an
// item, or nil if there is none.
func GetActiveRequest(ctx context.Context, db *sql.DB, itemID, requesterID int64) (*model.Request, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM requests
		 WHERE item_id = ? AND requester_id = ? AND status IN ('pending', 'approved')`,
		itemID, requesterID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active request: %w", err)
	}
	return GetRequest(ctx, db, id)
}

// ListIncomingRequests returns active requests on the owner's items, newest
// first. Requester contact details are joined only for rows where the owner
// visibility flag is set.
func ListIncomingRequests(ctx context.Context, db *sql.DB, ownerID int64) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.item_id, r.requester_id, r.status,
		        r.owner_visible, r.requester_visible, r.owner_confirmed, r.requester_confirmed,
		        r.created_at, r.approved_at,
		        i.name, i.owner_id, i.is_locked, i.is_completed,
		        CASE WHEN r.owner_visible THEN p.name ELSE '' END,
		        CASE WHEN r.owner_visible THEN p.phone ELSE '' END
		 FROM requests r
		 JOIN items i ON i.id = r.item_id
		 JOIN profiles p ON p.user_id = r.requester_id
		 WHERE i.owner_id = ? AND r.status IN ('pending', 'approved')
		 ORDER BY r.created_at DESC, r.id DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing incoming requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListApprovedRequests returns the requester's approved requests, newest
// first. Owner contact details are joined only for rows where the requester
// visibility flag is set.
func ListApprovedRequests(ctx context.Context, db *sql.DB, requesterID int64) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.item_id, r.requester_id, r.status,
		        r.owner_visible, r.requester_visible, r.owner_confirmed, r.requester_confirmed,
		        r.created_at, r.approved_at,
		        i.name, i.owner_id, i.is_locked, i.is_completed,
		        CASE WHEN r.requester_visible THEN p.name ELSE '' END,
		        CASE WHEN r.requester_visible THEN p.phone ELSE '' END
		 FROM requests r
		 JOIN items i ON i.id = r.item_id
		 JOIN profiles p ON p.user_id = i.owner_id
		 WHERE r.requester_id = ? AND r.status = 'approved'
		 ORDER BY r.created_at DESC, r.id DESC`, requesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing approved requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]model.Request, error) {
	var requests []model.Request
	for rows.Next() {
		var r model.Request
		if err := rows.Scan(&r.ID, &r.ItemID, &r.RequesterID, &r.Status,
			&r.OwnerVisible, &r.RequesterVisible, &r.OwnerConfirmed, &r.RequesterConfirmed,
			&r.CreatedAt, &r.ApprovedAt,
			&r.ItemName, &r.ItemOwnerID, &r.ItemIsLocked, &r.ItemIsCompleted,
			&r.ContactName, &r.ContactPhone); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
