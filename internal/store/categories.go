package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deklata/deklata/internal/model"
)

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, slug, name FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryBySlug returns a category by its slug.
func GetCategoryBySlug(ctx context.Context, db *sql.DB, slug string) (*model.Category, error) {
	c := &model.Category{}
	err := db.QueryRowContext(ctx,
		`SELECT id, slug, name FROM categories WHERE slug = ?`, slug,
	).Scan(&c.ID, &c.Slug, &c.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %q: %w", slug, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}
