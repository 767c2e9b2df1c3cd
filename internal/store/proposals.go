package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/barter/internal/model"
)

const proposalColumns = `p.id, p.sender_listing_id, p.receiver_listing_id, p.sender_id, p.receiver_id,
	p.comment, p.status, p.created_at, p.updated_at,
	sl.title, rl.title, su.username, ru.username`

const proposalJoins = `FROM proposals p
	JOIN listings sl ON sl.id = p.sender_listing_id
	JOIN listings rl ON rl.id = p.receiver_listing_id
	JOIN users su ON su.id = p.sender_id
	JOIN users ru ON ru.id = p.receiver_id`

// Proposal mailbox filters.
const (
	BoxSent     = "sent"
	BoxReceived = "received"
)

// ProposalFilter narrows ListProposals. UserID is required; Box selects
// sent or received proposals (both when empty).
type ProposalFilter struct {
	UserID int64
	Box    string
	Status string
}

// InsertProposal records a new pending proposal, but only while both
// listings are still active and owned by the given users. It reports false
// when that condition no longer holds.
func InsertProposal(ctx context.Context, db DBTX, senderListingID, receiverListingID, senderID, receiverID int64, comment string) (int64, bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO proposals (sender_listing_id, receiver_listing_id, sender_id, receiver_id, comment)
		 SELECT ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM listings WHERE id = ? AND owner_id = ? AND is_active = 1)
		   AND EXISTS (SELECT 1 FROM listings WHERE id = ? AND owner_id = ? AND is_active = 1)`,
		senderListingID, receiverListingID, senderID, receiverID, comment,
		senderListingID, senderID,
		receiverListingID, receiverID,
	)
	if err != nil {
		return 0, false, fmt.Errorf("inserting proposal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("checking proposal insert: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("getting proposal id: %w", err)
	}
	return id, true, nil
}

// ProposalExists reports whether the ordered listing pair was already proposed.
func ProposalExists(ctx context.Context, db DBTX, senderListingID, receiverListingID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM proposals WHERE sender_listing_id = ? AND receiver_listing_id = ?`,
		senderListingID, receiverListingID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking existing proposal: %w", err)
	}
	return count > 0, nil
}

// SetProposalStatus moves a pending proposal addressed to receiverID to
// status. It reports false when no row matched, i.e. the proposal does not
// exist, is addressed to someone else, or is no longer pending.
func SetProposalStatus(ctx context.Context, db DBTX, id, receiverID int64, status string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE proposals SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND receiver_id = ? AND status = 'pending'`,
		status, id, receiverID,
	)
	if err != nil {
		return false, fmt.Errorf("updating proposal status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking proposal update: %w", err)
	}
	return n == 1, nil
}

// GetProposal returns a proposal by ID.
func GetProposal(ctx context.Context, db DBTX, id int64) (*model.Proposal, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+proposalColumns+` `+proposalJoins+` WHERE p.id = ?`, id,
	)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting proposal: %w", err)
	}
	return p, nil
}

// ListProposals returns the proposals a user sent or received, newest first.
func ListProposals(ctx context.Context, db DBTX, f ProposalFilter) ([]model.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` ` + proposalJoins
	var args []any

	switch f.Box {
	case BoxSent:
		query += ` WHERE p.sender_id = ?`
		args = append(args, f.UserID)
	case BoxReceived:
		query += ` WHERE p.receiver_id = ?`
		args = append(args, f.UserID)
	default:
		query += ` WHERE (p.sender_id = ? OR p.receiver_id = ?)`
		args = append(args, f.UserID, f.UserID)
	}
	if f.Status != "" {
		query += ` AND p.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing proposals: %w", err)
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning proposal: %w", err)
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

func scanProposal(row rowScanner) (*model.Proposal, error) {
	p := &model.Proposal{}
	if err := row.Scan(&p.ID, &p.SenderListingID, &p.ReceiverListingID, &p.SenderID, &p.ReceiverID,
		&p.Comment, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&p.SenderListingTitle, &p.ReceiverListingTitle, &p.SenderName, &p.ReceiverName); err != nil {
		return nil, err
	}
	return p, nil
}
