package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deklata/deklata/internal/model"
)

// GetPoints returns a user's points total and derived tier. Users with no
// ledger row have zero points.
func GetPoints(ctx context.Context, db *sql.DB, userID int64) (*model.Points, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT points_total FROM user_points WHERE user_id = ?`, userID,
	).Scan(&total)
	if err == sql.ErrNoRows {
		total = 0
	} else if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	return &model.Points{
		UserID: userID,
		Total:  total,
		Tier:   model.PointsTier(total),
	}, nil
}
