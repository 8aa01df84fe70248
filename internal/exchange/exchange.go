// Package exchange implements the item-exchange state machine: requesting an
// item, the owner's approve/reject decision, the two-sided pickup
// confirmation handshake, and completion with its one-time point award.
//
// Every transition runs inside a single short transaction scoped to one
// item/request pair. State preconditions are enforced with conditional
// UPDATEs checked through RowsAffected, so two racing calls on the same row
// resolve to exactly one success.
package exchange

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/deklata/deklata/internal/model"
	"github.com/deklata/deklata/internal/store"
)

// CreateRequest creates a pending request for an item. It fails with
// model.ErrConflict if the item is locked, if the requester owns the item, or
// if the requester already has an active request on it, and with
// model.ErrNotFound if the item does not exist.
func CreateRequest(ctx context.Context, db *sql.DB, itemID, requesterID int64) (*model.Request, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	var status string
	var isLocked bool
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, status, is_locked FROM items WHERE id = ?`, itemID,
	).Scan(&ownerID, &status, &isLocked)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking item: %w", err)
	}

	if ownerID == requesterID {
		return nil, fmt.Errorf("cannot request own item: %w", model.ErrConflict)
	}
	if isLocked || status != model.ItemStatusAvailable {
		return nil, fmt.Errorf("item is not available: %w", model.ErrConflict)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (item_id, requester_id) VALUES (?, ?)`,
		itemID, requesterID,
	)
	if err != nil {
		// The partial unique index on (item_id, requester_id) rejects a
		// second active request from the same requester.
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("active request already exists: %w", model.ErrConflict)
		}
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	id, _ := result.LastInsertId()
	return store.GetRequest(ctx, db, id)
}

// Approve transitions a pending request to approved: both visibility flags
// are set, approved_at is stamped, and the item is locked, all atomically.
// Only the item's owner may approve.
func Approve(ctx context.Context, db *sql.DB, requestID, callerID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	itemID, status, isLocked, err := checkOwner(ctx, tx, requestID, callerID)
	if err != nil {
		return err
	}
	if status != model.RequestStatusPending {
		return fmt.Errorf("request is not pending: %w", model.ErrInvalidState)
	}
	if isLocked {
		// A different request on this item was already approved.
		return fmt.Errorf("item is already locked by an approved request: %w", model.ErrConflict)
	}

	// Guard the transition with a conditional update: if a concurrent call
	// already moved the request out of pending, no rows match.
	result, err := tx.ExecContext(ctx,
		`UPDATE requests
		 SET status = 'approved', owner_visible = 1, requester_visible = 1,
		     approved_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`, requestID,
	)
	if err != nil {
		return fmt.Errorf("approving request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("request is not pending: %w", model.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = 'approved', is_locked = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("locking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing approval: %w", err)
	}
	return nil
}

// Reject transitions a pending request to rejected and returns the item to
// available, unlocked. Only the item's owner may reject.
func Reject(ctx context.Context, db *sql.DB, requestID, callerID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	itemID, _, _, err := checkOwner(ctx, tx, requestID, callerID)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = 'rejected' WHERE id = ? AND status = 'pending'`,
		requestID,
	)
	if err != nil {
		return fmt.Errorf("rejecting request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("request is not pending: %w", model.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = 'available', is_locked = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("unlocking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rejection: %w", err)
	}
	return nil
}

// ConfirmOwnerGiven records the owner's side of the pickup handshake.
// Repeating the call is a no-op. If the requester has already confirmed,
// completion fires within the same transaction.
func ConfirmOwnerGiven(ctx context.Context, db *sql.DB, requestID, callerID int64, award int64) error {
	return confirm(ctx, db, requestID, callerID, award, true)
}

// ConfirmRequesterReceived records the requester's side of the pickup
// handshake. Repeating the call is a no-op. If the owner has already
// confirmed, completion fires within the same transaction.
func ConfirmRequesterReceived(ctx context.Context, db *sql.DB, requestID, callerID int64, award int64) error {
	return confirm(ctx, db, requestID, callerID, award, false)
}

func confirm(ctx context.Context, db *sql.DB, requestID, callerID int64, award int64, asOwner bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID, ownerID, requesterID int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT r.item_id, i.owner_id, r.requester_id, r.status
		 FROM requests r JOIN items i ON i.id = r.item_id
		 WHERE r.id = ?`, requestID,
	).Scan(&itemID, &ownerID, &requesterID, &status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("request %d: %w", requestID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking request: %w", err)
	}

	if asOwner && callerID != ownerID {
		return fmt.Errorf("only the owner can confirm giving: %w", model.ErrForbidden)
	}
	if !asOwner && callerID != requesterID {
		return fmt.Errorf("only the requester can confirm receipt: %w", model.ErrForbidden)
	}
	if status != model.RequestStatusApproved {
		return fmt.Errorf("request is not approved: %w", model.ErrInvalidState)
	}

	column := "requester_confirmed"
	if asOwner {
		column = "owner_confirmed"
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET `+column+` = 1 WHERE id = ?`, requestID,
	)
	if err != nil {
		return fmt.Errorf("recording confirmation: %w", err)
	}

	// Completion fires once both sides have confirmed. Reading back inside
	// the transaction makes the check-and-complete atomic: even if both
	// confirmations land simultaneously, only the later transaction sees
	// both flags set, and Complete itself is idempotent besides.
	var ownerConfirmed, requesterConfirmed bool
	err = tx.QueryRowContext(ctx,
		`SELECT owner_confirmed, requester_confirmed FROM requests WHERE id = ?`, requestID,
	).Scan(&ownerConfirmed, &requesterConfirmed)
	if err != nil {
		return fmt.Errorf("checking confirmations: %w", err)
	}

	if ownerConfirmed && requesterConfirmed {
		if err := completeTx(ctx, tx, itemID, ownerID, award); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing confirmation: %w", err)
	}
	return nil
}

// Complete marks an item completed and awards points to its owner. It is
// idempotent: repeated invocations (client retries) are no-ops and never
// award twice. Only the item's owner may invoke it explicitly, and only once
// both confirmations are in place.
func Complete(ctx context.Context, db *sql.DB, itemID, callerID int64, award int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	var isCompleted bool
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, is_completed FROM items WHERE id = ?`, itemID,
	).Scan(&ownerID, &isCompleted)
	if err == sql.ErrNoRows {
		return fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if ownerID != callerID {
		return fmt.Errorf("only the owner can complete an item: %w", model.ErrForbidden)
	}

	if isCompleted {
		// Retry of an already-completed exchange.
		return nil
	}

	var bothConfirmed bool
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM requests
		 WHERE item_id = ? AND status = 'approved'
		   AND owner_confirmed = 1 AND requester_confirmed = 1`, itemID,
	).Scan(&bothConfirmed)
	if err != nil {
		return fmt.Errorf("checking confirmations: %w", err)
	}
	if !bothConfirmed {
		return fmt.Errorf("both confirmations required: %w", model.ErrInvalidState)
	}

	if err := completeTx(ctx, tx, itemID, ownerID, award); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing completion: %w", err)
	}
	return nil
}

// completeTx performs the completion inside an existing transaction. The
// points_awards primary key on item_id is the idempotency guard: only the
// call that inserts the award row increments the ledger.
func completeTx(ctx context.Context, tx *sql.Tx, itemID, ownerID, award int64) error {
	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO points_awards (item_id, owner_id, points) VALUES (?, ?, ?)`,
		itemID, ownerID, award,
	)
	if err != nil {
		return fmt.Errorf("recording award: %w", err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_points (user_id, points_total) VALUES (?, ?)
			 ON CONFLICT (user_id) DO UPDATE SET points_total = points_total + ?`,
			ownerID, award, award,
		)
		if err != nil {
			return fmt.Errorf("awarding points: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = 'completed', is_completed = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND is_completed = 0`, itemID,
	)
	if err != nil {
		return fmt.Errorf("completing item: %w", err)
	}

	return nil
}

// checkOwner loads a request and its item and verifies the caller owns the
// item. Returns the item id, the request status and the item's lock state.
func checkOwner(ctx context.Context, tx *sql.Tx, requestID, callerID int64) (int64, string, bool, error) {
	var itemID, ownerID int64
	var status string
	var isLocked bool
	err := tx.QueryRowContext(ctx,
		`SELECT r.item_id, i.owner_id, r.status, i.is_locked
		 FROM requests r JOIN items i ON i.id = r.item_id
		 WHERE r.id = ?`, requestID,
	).Scan(&itemID, &ownerID, &status, &isLocked)
	if err == sql.ErrNoRows {
		return 0, "", false, fmt.Errorf("request %d: %w", requestID, model.ErrNotFound)
	}
	if err != nil {
		return 0, "", false, fmt.Errorf("checking request: %w", err)
	}
	if ownerID != callerID {
		return 0, "", false, fmt.Errorf("only the item owner may decide: %w", model.ErrForbidden)
	}
	return itemID, status, isLocked, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
