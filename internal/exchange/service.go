// Package exchange implements the proposal lifecycle: creating an exchange
// proposal between two listings and accepting or rejecting it. The JSON API
// and the web site both go through this package so the rules live in one
// place.
package exchange

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/ratelimit"
	"github.com/erazemk/barter/internal/store"
)

// Service runs proposal operations against the database.
type Service struct {
	DB      *sql.DB
	Limiter *ratelimit.Limiter // optional
}

// NewService returns a Service. limiter may be nil.
func NewService(db *sql.DB, limiter *ratelimit.Limiter) *Service {
	return &Service{DB: db, Limiter: limiter}
}

// CreateParams describes a new proposal. SenderID is the acting user.
type CreateParams struct {
	SenderListingID   int64
	ReceiverListingID int64
	SenderID          int64
	Comment           string
}

// Create proposes exchanging the sender's listing for the receiver's.
func (s *Service) Create(ctx context.Context, p CreateParams) (*model.Proposal, error) {
	comment := strings.TrimSpace(p.Comment)
	if utf8.RuneCountInString(comment) < model.MinCommentLength {
		return nil, ErrInvalidComment
	}

	senderListing, receiverListing, err := s.checkCreate(ctx, p)
	if err != nil {
		return nil, err
	}

	ok, retry, err := s.Limiter.Allow(ctx, p.SenderID)
	if err != nil {
		return nil, fmt.Errorf("checking proposal rate: %w", err)
	}
	if !ok {
		return nil, &RateLimitError{RetryAfter: retry}
	}

	// The insert re-checks ownership and activity itself, so a listing
	// traded in the meantime cannot slip through.
	id, inserted, err := store.InsertProposal(ctx, s.DB,
		senderListing.ID, receiverListing.ID, p.SenderID, receiverListing.OwnerID, comment)
	if store.IsUniqueViolation(err) {
		return nil, ErrDuplicateProposal
	}
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrInactiveListing
	}

	return store.GetProposal(ctx, s.DB, id)
}

// checkCreate validates a create request against current state.
func (s *Service) checkCreate(ctx context.Context, p CreateParams) (*model.Listing, *model.Listing, error) {
	sender, err := store.GetListing(ctx, s.DB, p.SenderListingID)
	if err != nil {
		return nil, nil, err
	}
	receiver, err := store.GetListing(ctx, s.DB, p.ReceiverListingID)
	if err != nil {
		return nil, nil, err
	}
	if sender == nil || receiver == nil {
		return nil, nil, ErrNotFound
	}

	switch {
	case sender.OwnerID != p.SenderID:
		return nil, nil, ErrNotOwner
	case receiver.OwnerID == p.SenderID:
		return nil, nil, ErrSelfExchange
	case !sender.Active || !receiver.Active:
		return nil, nil, ErrInactiveListing
	}

	exists, err := store.ProposalExists(ctx, s.DB, sender.ID, receiver.ID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrDuplicateProposal
	}
	return sender, receiver, nil
}

// Accept accepts a pending proposal on behalf of its receiver. The status
// change, the deactivation of both listings and the exchange counters
// commit together.
func (s *Service) Accept(ctx context.Context, proposalID, actingUserID int64) (*model.Proposal, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Write first so the transaction holds the write lock before reading.
	ok, err := store.SetProposalStatus(ctx, tx, proposalID, actingUserID, model.ProposalAccepted)
	if err != nil {
		return nil, err
	}
	p, err := store.GetProposal(ctx, tx, proposalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, refusal(p, actingUserID)
	}

	n, err := store.DeactivateListings(ctx, tx, p.SenderListingID, p.ReceiverListingID)
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, ErrInactiveListing
	}

	if err := store.RecordExchange(ctx, tx, p.SenderID, p.ReceiverID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing acceptance: %w", err)
	}

	return store.GetProposal(ctx, s.DB, proposalID)
}

// Reject rejects a pending proposal on behalf of its receiver. Listings
// stay active.
func (s *Service) Reject(ctx context.Context, proposalID, actingUserID int64) (*model.Proposal, error) {
	ok, err := store.SetProposalStatus(ctx, s.DB, proposalID, actingUserID, model.ProposalRejected)
	if err != nil {
		return nil, err
	}
	p, err := store.GetProposal(ctx, s.DB, proposalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, refusal(p, actingUserID)
	}
	return p, nil
}

// refusal explains why a status change matched no row.
func refusal(p *model.Proposal, actingUserID int64) error {
	switch {
	case p == nil:
		return ErrNotFound
	case p.ReceiverID != actingUserID:
		return ErrNotReceiver
	default:
		return ErrNotPending
	}
}
