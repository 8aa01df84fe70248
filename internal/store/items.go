package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deklata/deklata/internal/model"
)

// DefaultPageSize is the item listing page size.
const DefaultPageSize = 20

// ItemFilter narrows an item listing. Zero values mean "no filter".
type ItemFilter struct {
	Status       string // item status, usually "available"
	CategorySlug string
	Query        string // substring match over name and description
	Page         int    // 1-based
	PageSize     int
}

const itemColumns = `i.id, i.owner_id, i.name, i.description, i.category_id,
	i.pickup_location, i.status, i.is_locked, i.is_completed,
	i.created_at, i.updated_at, c.slug`

// CreateItem creates a new item with status available and no lock.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, name, description string, categoryID int64, pickupLocation string) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, name, description, category_id, pickup_location)
		 VALUES (?, ?, ?, ?, ?)`,
		ownerID, name, description, categoryID, pickupLocation,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN categories c ON c.id = i.category_id
		 WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns a page of items matching the filter plus the total match
// count for pagination.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if filter.Status != "" {
		where += ` AND i.status = ?`
		args = append(args, filter.Status)
	}
	if filter.CategorySlug != "" {
		where += ` AND c.slug = ?`
		args = append(args, filter.CategorySlug)
	}
	if filter.Query != "" {
		where += ` AND (i.name LIKE ? ESCAPE '\' OR i.description LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(filter.Query) + "%"
		args = append(args, pattern, pattern)
	}

	from := ` FROM items i JOIN categories c ON c.id = i.category_id`

	var total int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	query := `SELECT ` + itemColumns + from + where +
		` ORDER BY i.created_at DESC, i.id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

// DeleteItem permanently deletes an item. Only the owner may delete; the
// check runs server-side inside the deleting transaction. Images and requests
// cascade through foreign keys.
func DeleteItem(ctx context.Context, db *sql.DB, id, callerID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM items WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking item owner: %w", err)
	}
	if ownerID != callerID {
		return fmt.Errorf("only the owner can delete an item: %w", model.ErrForbidden)
	}

	// points_awards rows survive deletion so a completed item cannot
	// re-award points if its id is ever reused.
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var description, pickup sql.NullString
	err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &description, &item.CategoryID,
		&pickup, &item.Status, &item.IsLocked, &item.IsCompleted,
		&item.CreatedAt, &item.UpdatedAt, &item.CategorySlug)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.PickupLocation = pickup.String
	return item, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
