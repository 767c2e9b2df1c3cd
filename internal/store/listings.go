package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/barter/internal/model"
)

const listingColumns = `l.id, l.owner_id, l.title, l.description, l.category, l.condition,
	l.image_mime, l.image_url, l.is_active, l.created_at, l.updated_at, u.username`

// ListingFilter narrows ListListings. Zero values match everything.
type ListingFilter struct {
	Query      string
	Category   string
	Condition  string
	OwnerID    int64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// CreateListing creates an active listing owned by ownerID.
func CreateListing(ctx context.Context, db DBTX, ownerID int64, in model.ListingInput) (*model.Listing, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO listings (owner_id, title, description, category, condition, image_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ownerID, in.Title, in.Description, in.Category, in.Condition, nullString(in.ImageURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting listing id: %w", err)
	}

	return GetListing(ctx, db, id)
}

// GetListing returns a listing by ID.
func GetListing(ctx context.Context, db DBTX, id int64) (*model.Listing, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+listingColumns+`
		 FROM listings l
		 JOIN users u ON u.id = l.owner_id
		 WHERE l.id = ?`, id,
	)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	return l, nil
}

// ListListings returns one page of listings matching f, newest first,
// together with the total number of matches.
func ListListings(ctx context.Context, db DBTX, f ListingFilter) ([]model.Listing, int, error) {
	where := []string{"1=1"}
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `(l.title LIKE ? ESCAPE '\' OR l.description LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(q), likePattern(q))
	}
	if f.Category != "" {
		where = append(where, `l.category = ?`)
		args = append(args, f.Category)
	}
	if f.Condition != "" {
		where = append(where, `l.condition = ?`)
		args = append(args, f.Condition)
	}
	if f.OwnerID > 0 {
		where = append(where, `l.owner_id = ?`)
		args = append(args, f.OwnerID)
	}
	if f.ActiveOnly {
		where = append(where, `l.is_active = 1`)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings l WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	query := `SELECT ` + listingColumns + `
	          FROM listings l
	          JOIN users u ON u.id = l.owner_id
	          WHERE ` + cond + `
	          ORDER BY l.created_at DESC, l.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, total, rows.Err()
}

// UpdateListing updates a listing's editable fields.
func UpdateListing(ctx context.Context, db DBTX, id int64, in model.ListingInput) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, category = ?, condition = ?,
		        image_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		in.Title, in.Description, in.Category, in.Condition, nullString(in.ImageURL), id,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}
	return nil
}

// DeactivateListings marks the given listings inactive and returns how many
// of them were active before the call.
func DeactivateListings(ctx context.Context, db DBTX, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := db.ExecContext(ctx,
		`UPDATE listings SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE is_active = 1 AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivating listings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deactivated listings: %w", err)
	}
	return n, nil
}

// DeleteListing deletes a listing. Its proposals go with it.
func DeleteListing(ctx context.Context, db DBTX, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	return nil
}

// SetListingImage sets a listing's uploaded photo.
func SetListingImage(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting listing image: %w", err)
	}
	return nil
}

// GetListingImage returns a listing's photo and its MIME type.
func GetListingImage(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM listings WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting listing image: %w", err)
	}
	return image, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*model.Listing, error) {
	l := &model.Listing{}
	var imageMime, imageURL sql.NullString
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Category, &l.Condition,
		&imageMime, &imageURL, &l.Active, &l.CreatedAt, &l.UpdatedAt, &l.OwnerName); err != nil {
		return nil, err
	}
	l.ImageMime = imageMime.String
	l.ImageURL = imageURL.String
	return l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
