package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deklata/deklata/internal/model"
)

// CreateContactMessage stores a contact form submission.
func CreateContactMessage(ctx context.Context, db *sql.DB, msgType, email, message string) (*model.ContactMessage, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO contact_messages (type, email, message) VALUES (?, ?, ?)`,
		msgType, email, message,
	)
	if err != nil {
		return nil, fmt.Errorf("creating contact message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting contact message id: %w", err)
	}

	m := &model.ContactMessage{}
	err = db.QueryRowContext(ctx,
		`SELECT id, type, email, message, created_at FROM contact_messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.Type, &m.Email, &m.Message, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting contact message: %w", err)
	}
	return m, nil
}
