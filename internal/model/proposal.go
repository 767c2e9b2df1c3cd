package model

import "time"

// Proposal is an offer to exchange the sender's listing for the receiver's.
type Proposal struct {
	ID                int64     `json:"id"`
	SenderListingID   int64     `json:"sender_listing_id"`
	ReceiverListingID int64     `json:"receiver_listing_id"`
	SenderID          int64     `json:"sender_id"`
	ReceiverID        int64     `json:"receiver_id"`
	Comment           string    `json:"comment"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	SenderListingTitle   string `json:"sender_listing_title,omitempty"`
	ReceiverListingTitle string `json:"receiver_listing_title,omitempty"`
	SenderName           string `json:"sender_name,omitempty"`
	ReceiverName         string `json:"receiver_name,omitempty"`
}

// Proposal statuses.
const (
	ProposalPending  = "pending"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
)

// MinCommentLength is the shortest accepted proposal comment.
const MinCommentLength = 10

// CanTransition reports whether a proposal may move from one status to
// another. Only pending proposals move, and only to a terminal status.
func CanTransition(from, to string) bool {
	return from == ProposalPending && (to == ProposalAccepted || to == ProposalRejected)
}

// IsPending reports whether the proposal still awaits the receiver.
func (p Proposal) IsPending() bool {
	return p.Status == ProposalPending
}
