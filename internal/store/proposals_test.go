package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/barter/internal/db"
	"github.com/erazemk/barter/internal/model"
)

type proposalFixture struct {
	db         *sql.DB
	alice, bob *model.User
	radio      *model.Listing // alice's
	lamp       *model.Listing // bob's
}

func newProposalFixture(t *testing.T) *proposalFixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	return &proposalFixture{
		db:    database,
		alice: alice,
		bob:   bob,
		radio: createListing(t, database, alice.ID, "Vintage radio"),
		lamp:  createListing(t, database, bob.ID, "Desk lamp"),
	}
}

func (f *proposalFixture) propose(t *testing.T) int64 {
	t.Helper()
	id, ok, err := InsertProposal(context.Background(), f.db, f.lamp.ID, f.radio.ID, f.bob.ID, f.alice.ID, "Lamp for the radio?")
	if err != nil || !ok {
		t.Fatalf("InsertProposal: ok=%v err=%v", ok, err)
	}
	return id
}

func TestInsertProposal(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	id := f.propose(t)

	p, err := GetProposal(ctx, f.db, id)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if p.Status != model.ProposalPending {
		t.Errorf("expected pending, got %q", p.Status)
	}
	if p.SenderName != "bob" || p.ReceiverName != "alice" {
		t.Errorf("unexpected parties %q -> %q", p.SenderName, p.ReceiverName)
	}
	if p.SenderListingTitle != "Desk lamp" || p.ReceiverListingTitle != "Vintage radio" {
		t.Errorf("unexpected titles %q / %q", p.SenderListingTitle, p.ReceiverListingTitle)
	}

	exists, err := ProposalExists(ctx, f.db, f.lamp.ID, f.radio.ID)
	if err != nil || !exists {
		t.Errorf("expected proposal to exist, got %v (%v)", exists, err)
	}
	reverse, _ := ProposalExists(ctx, f.db, f.radio.ID, f.lamp.ID)
	if reverse {
		t.Error("expected reverse direction not to exist")
	}

	_, _, err = InsertProposal(ctx, f.db, f.lamp.ID, f.radio.ID, f.bob.ID, f.alice.ID, "Again, lamp for radio?")
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation on duplicate, got %v", err)
	}
}

func TestInsertProposalGuards(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	// Wrong sender for the offered listing.
	_, ok, err := InsertProposal(ctx, f.db, f.radio.ID, f.lamp.ID, f.bob.ID, f.alice.ID, "Not my listing to give")
	if err != nil {
		t.Fatalf("InsertProposal: %v", err)
	}
	if ok {
		t.Error("expected insert to be refused for a listing the sender does not own")
	}

	DeactivateListings(ctx, f.db, f.radio.ID)
	_, ok, err = InsertProposal(ctx, f.db, f.lamp.ID, f.radio.ID, f.bob.ID, f.alice.ID, "Lamp for the radio?")
	if err != nil {
		t.Fatalf("InsertProposal: %v", err)
	}
	if ok {
		t.Error("expected insert to be refused for an inactive listing")
	}
}

func TestSetProposalStatus(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	id := f.propose(t)

	ok, err := SetProposalStatus(ctx, f.db, id, f.bob.ID, model.ProposalAccepted)
	if err != nil {
		t.Fatalf("SetProposalStatus: %v", err)
	}
	if ok {
		t.Error("expected sender not to be able to answer")
	}

	ok, _ = SetProposalStatus(ctx, f.db, id, f.alice.ID, model.ProposalRejected)
	if !ok {
		t.Fatal("expected receiver to reject pending proposal")
	}

	ok, _ = SetProposalStatus(ctx, f.db, id, f.alice.ID, model.ProposalAccepted)
	if ok {
		t.Error("expected answered proposal to stay final")
	}

	p, _ := GetProposal(ctx, f.db, id)
	if p.Status != model.ProposalRejected {
		t.Errorf("expected rejected, got %q", p.Status)
	}
}

func TestListProposals(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	id := f.propose(t)

	tests := []struct {
		name string
		f    ProposalFilter
		want int
	}{
		{"sender sent", ProposalFilter{UserID: f.bob.ID, Box: BoxSent}, 1},
		{"sender received", ProposalFilter{UserID: f.bob.ID, Box: BoxReceived}, 0},
		{"receiver received", ProposalFilter{UserID: f.alice.ID, Box: BoxReceived}, 1},
		{"receiver both", ProposalFilter{UserID: f.alice.ID}, 1},
		{"status pending", ProposalFilter{UserID: f.alice.ID, Status: model.ProposalPending}, 1},
		{"status accepted", ProposalFilter{UserID: f.alice.ID, Status: model.ProposalAccepted}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListProposals(ctx, f.db, tt.f)
			if err != nil {
				t.Fatalf("ListProposals: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d proposals, got %d", tt.want, len(got))
			}
			if tt.want == 1 && got[0].ID != id {
				t.Errorf("expected proposal %d, got %d", id, got[0].ID)
			}
		})
	}
}
