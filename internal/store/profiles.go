package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/barter/internal/model"
)

// GetProfile returns the profile of an active user.
func GetProfile(ctx context.Context, db DBTX, userID int64) (*model.Profile, error) {
	p := &model.Profile{}
	err := db.QueryRowContext(ctx,
		`SELECT p.user_id, u.username, p.phone, p.city, p.bio, p.successful_exchanges,
		        p.created_at, p.updated_at
		 FROM profiles p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = ? AND u.deleted_at IS NULL`, userID,
	).Scan(&p.UserID, &p.Username, &p.Phone, &p.City, &p.Bio, &p.SuccessfulExchanges,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// UpdateProfile updates the editable profile fields.
func UpdateProfile(ctx context.Context, db DBTX, userID int64, phone, city, bio string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET phone = ?, city = ?, bio = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`,
		phone, city, bio, userID,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// RecordExchange increments the completed exchange counter of both users.
func RecordExchange(ctx context.Context, db DBTX, userA, userB int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET successful_exchanges = successful_exchanges + 1,
		                     updated_at = CURRENT_TIMESTAMP
		 WHERE user_id IN (?, ?)`,
		userA, userB,
	)
	if err != nil {
		return fmt.Errorf("recording exchange: %w", err)
	}
	return nil
}
