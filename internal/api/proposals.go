package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/barter/internal/exchange"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

// ProposalsHandler handles exchange proposal endpoints.
type ProposalsHandler struct {
	DB       *sql.DB
	Exchange *exchange.Service
}

type createProposalRequest struct {
	SenderListingID   int64  `json:"sender_listing_id"`
	ReceiverListingID int64  `json:"receiver_listing_id"`
	Comment           string `json:"comment"`
}

// List handles GET /api/proposals?box=sent|received&status=.
func (h *ProposalsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	f := store.ProposalFilter{UserID: claims.UserID, Box: q.Get("box"), Status: q.Get("status")}
	if f.Box != "" && f.Box != store.BoxSent && f.Box != store.BoxReceived {
		jsonError(w, http.StatusBadRequest, "box must be sent or received")
		return
	}
	switch f.Status {
	case "", model.ProposalPending, model.ProposalAccepted, model.ProposalRejected:
	default:
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	proposals, err := store.ListProposals(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list proposals", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list proposals")
		return
	}
	if proposals == nil {
		proposals = []model.Proposal{}
	}
	jsonResponse(w, http.StatusOK, proposals)
}

// Create handles POST /api/proposals.
func (h *ProposalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	p, err := h.Exchange.Create(r.Context(), exchange.CreateParams{
		SenderListingID:   req.SenderListingID,
		ReceiverListingID: req.ReceiverListingID,
		SenderID:          claims.UserID,
		Comment:           req.Comment,
	})
	if err != nil {
		exchangeError(w, err)
		return
	}

	slog.Info("proposal created", "user", claims.Username, "proposal", p.ID, "receiver", p.ReceiverName)
	jsonResponse(w, http.StatusCreated, p)
}

// Get handles GET /api/proposals/{id}. Only the two parties may see it.
func (h *ProposalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	p, err := store.GetProposal(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get proposal", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get proposal")
		return
	}
	claims := GetClaims(r.Context())
	if p == nil || (p.SenderID != claims.UserID && p.ReceiverID != claims.UserID) {
		jsonError(w, http.StatusNotFound, "proposal not found")
		return
	}

	jsonResponse(w, http.StatusOK, p)
}

// Accept handles POST /api/proposals/{id}/accept.
func (h *ProposalsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, "accepted", h.Exchange.Accept)
}

// Reject handles POST /api/proposals/{id}/reject.
func (h *ProposalsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, "rejected", h.Exchange.Reject)
}

type answerFunc func(ctx context.Context, proposalID, actingUserID int64) (*model.Proposal, error)

func (h *ProposalsHandler) answer(w http.ResponseWriter, r *http.Request, verb string, fn answerFunc) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	claims := GetClaims(r.Context())
	p, err := fn(r.Context(), id, claims.UserID)
	if err != nil {
		exchangeError(w, err)
		return
	}

	slog.Info("proposal "+verb, "user", claims.Username, "proposal", p.ID, "sender", p.SenderName)
	jsonResponse(w, http.StatusOK, p)
}
