package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deklata/deklata/internal/model"
)

// AddItemImage stores a processed image for an item. An item carries at most
// model.MaxImagesPerItem images; the cap is checked inside the inserting
// transaction.
func AddItemImage(ctx context.Context, db *sql.DB, itemID, callerID int64, data []byte, mime string) (*model.ItemImage, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM items WHERE id = ?`, itemID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking item: %w", err)
	}
	if ownerID != callerID {
		return nil, fmt.Errorf("only the owner can add images: %w", model.ErrForbidden)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item_images WHERE item_id = ?`, itemID,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("counting item images: %w", err)
	}
	if count >= model.MaxImagesPerItem {
		return nil, fmt.Errorf("item already has %d images: %w", count, model.ErrConflict)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO item_images (item_id, image, mime, position) VALUES (?, ?, ?, ?)`,
		itemID, data, mime, count,
	)
	if err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing image: %w", err)
	}

	id, _ := result.LastInsertId()
	return &model.ItemImage{ID: id, ItemID: itemID, Mime: mime, Position: count}, nil
}

// ListItemImages returns image metadata for an item, in position order.
func ListItemImages(ctx context.Context, db *sql.DB, itemID int64) ([]model.ItemImage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, mime, position, created_at
		 FROM item_images WHERE item_id = ? ORDER BY position`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	defer rows.Close()

	var images []model.ItemImage
	for rows.Next() {
		var img model.ItemImage
		if err := rows.Scan(&img.ID, &img.ItemID, &img.Mime, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetItemImage returns the bytes and MIME type of a stored image.
func GetItemImage(ctx context.Context, db *sql.DB, imageID int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT image, mime FROM item_images WHERE id = ?`, imageID,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("image %d: %w", imageID, model.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, mime, nil
}
