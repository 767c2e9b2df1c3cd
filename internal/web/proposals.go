package web

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/erazemk/barter/internal/exchange"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

type proposalsPage struct {
	PageData
	Box       string
	Status    string
	Proposals []model.Proposal
}

// ProposalsPage handles GET /proposals?box=received|sent&status=.
func (s *Server) ProposalsPage(w http.ResponseWriter, r *http.Request) {
	s.renderProposals(w, r, http.StatusOK, "")
}

func (s *Server) renderProposals(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	claims := GetWebClaims(r.Context())

	box := r.URL.Query().Get("box")
	if box != store.BoxSent {
		box = store.BoxReceived
	}
	filter := r.URL.Query().Get("status")
	switch filter {
	case model.ProposalPending, model.ProposalAccepted, model.ProposalRejected:
	default:
		filter = ""
	}

	proposals, err := store.ListProposals(r.Context(), s.DB, store.ProposalFilter{
		UserID: claims.UserID,
		Box:    box,
		Status: filter,
	})
	if err != nil {
		slog.Error("failed to list proposals", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load proposals.")
		return
	}

	data := &proposalsPage{
		PageData:  s.page(r, "Proposals"),
		Box:       box,
		Status:    filter,
		Proposals: proposals,
	}
	data.Error = errMsg
	s.Templates.RenderStatus(w, status, "proposals.html", data)
}

// ProposeSubmit handles POST /listings/{id}/propose. The viewer offers one
// of their own listings (sender_listing_id) for the listing on the page.
func (s *Server) ProposeSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	receiverListingID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "No such listing.")
		return
	}
	senderListingID, _ := strconv.ParseInt(r.FormValue("sender_listing_id"), 10, 64)
	comment := r.FormValue("comment")

	p, err := s.Exchange.Create(r.Context(), exchange.CreateParams{
		SenderListingID:   senderListingID,
		ReceiverListingID: receiverListingID,
		SenderID:          claims.UserID,
		Comment:           comment,
	})
	if err != nil {
		s.proposeFailed(w, r, receiverListingID, comment, err)
		return
	}

	slog.Info("proposal created", "user", claims.Username, "proposal", p.ID, "receiver", p.ReceiverName)
	http.Redirect(w, r, listingURL(receiverListingID, "proposed"), http.StatusSeeOther)
}

// proposeFailed re-renders the listing page with the error, keeping the
// comment the user typed.
func (s *Server) proposeFailed(w http.ResponseWriter, r *http.Request, listingID int64, comment string, err error) {
	status := exchange.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("proposal operation failed", "error", err)
	}
	setRetryAfter(w, err)

	listing, lerr := store.GetListing(r.Context(), s.DB, listingID)
	if lerr != nil || listing == nil {
		s.renderError(w, r, status, exchange.Message(err))
		return
	}
	data, lerr := s.listingDetail(r, listing)
	if lerr != nil {
		s.renderError(w, r, status, exchange.Message(err))
		return
	}
	data.Error = exchange.Message(err)
	data.Comment = comment
	s.Templates.RenderStatus(w, status, "listing_detail.html", data)
}

// AcceptSubmit handles POST /proposals/{id}/accept.
func (s *Server) AcceptSubmit(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, "accepted", s.Exchange.Accept)
}

// RejectSubmit handles POST /proposals/{id}/reject.
func (s *Server) RejectSubmit(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, "rejected", s.Exchange.Reject)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, verb string,
	fn func(ctx context.Context, proposalID, actingUserID int64) (*model.Proposal, error)) {
	claims := GetWebClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.renderProposals(w, r, http.StatusNotFound, exchange.ErrNotFound.Error())
		return
	}

	p, err := fn(r.Context(), id, claims.UserID)
	if err != nil {
		status := exchange.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("proposal operation failed", "error", err)
		}
		s.renderProposals(w, r, status, exchange.Message(err))
		return
	}

	slog.Info("proposal "+verb, "user", claims.Username, "proposal", p.ID, "sender", p.SenderName)
	http.Redirect(w, r, "/proposals?box=received&notice="+verb, http.StatusSeeOther)
}

func setRetryAfter(w http.ResponseWriter, err error) {
	var rle *exchange.RateLimitError
	if errors.As(err, &rle) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rle.RetryAfter.Seconds()))))
	}
}
