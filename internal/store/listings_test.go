package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/erazemk/barter/internal/db"
	"github.com/erazemk/barter/internal/model"
)

func createListing(t *testing.T, database *sql.DB, ownerID int64, title string) *model.Listing {
	t.Helper()
	l, err := CreateListing(context.Background(), database, ownerID, model.ListingInput{
		Title:       title,
		Description: "Works fine, some scratches on the side.",
		Category:    "electronics",
		Condition:   "good",
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return l
}

func TestCreateAndGetListing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	l := createListing(t, database, owner.ID, "Vintage radio")

	if !l.Active {
		t.Error("expected new listing to be active")
	}
	if l.OwnerName != "alice" {
		t.Errorf("expected owner name 'alice', got %q", l.OwnerName)
	}
	if l.ImageURL != "" || l.HasImage() {
		t.Error("expected listing without image")
	}

	missing, err := GetListing(ctx, database, 9999)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing listing")
	}
}

func TestListListingsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)

	radio := createListing(t, database, alice.ID, "Vintage radio")
	createListing(t, database, alice.ID, "100% cotton shirt")
	lamp := createListing(t, database, bob.ID, "Desk lamp")
	UpdateListing(ctx, database, lamp.ID, model.ListingInput{
		Title:       "Desk lamp",
		Description: "Bright and adjustable, like new condition.",
		Category:    "home",
		Condition:   "like_new",
	})
	DeactivateListings(ctx, database, radio.ID)

	tests := []struct {
		name string
		f    ListingFilter
		want int
	}{
		{"all", ListingFilter{}, 3},
		{"active only", ListingFilter{ActiveOnly: true}, 2},
		{"query matches title", ListingFilter{Query: "RADIO"}, 1},
		{"query matches description", ListingFilter{Query: "adjustable"}, 1},
		{"percent is literal", ListingFilter{Query: "100%"}, 1},
		{"underscore is literal", ListingFilter{Query: "_"}, 0},
		{"category", ListingFilter{Category: "home"}, 1},
		{"condition", ListingFilter{Condition: "good"}, 2},
		{"owner", ListingFilter{OwnerID: alice.ID}, 2},
		{"owner active", ListingFilter{OwnerID: alice.ID, ActiveOnly: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings, total, err := ListListings(ctx, database, tt.f)
			if err != nil {
				t.Fatalf("ListListings: %v", err)
			}
			if total != tt.want || len(listings) != tt.want {
				t.Errorf("expected %d listings, got %d (total %d)", tt.want, len(listings), total)
			}
		})
	}
}

func TestListListingsPagination(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	for i := range 5 {
		createListing(t, database, owner.ID, fmt.Sprintf("Listing number %d", i))
	}

	page, total, err := ListListings(ctx, database, ListingFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 listing on last page, got %d", len(page))
	}
	// Newest first, so the last page holds the first listing.
	if page[0].Title != "Listing number 0" {
		t.Errorf("expected oldest listing last, got %q", page[0].Title)
	}
}

func TestDeactivateListingsCountsActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	a := createListing(t, database, owner.ID, "First thing")
	b := createListing(t, database, owner.ID, "Second thing")

	n, err := DeactivateListings(ctx, database, a.ID, b.ID)
	if err != nil {
		t.Fatalf("DeactivateListings: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deactivated, got %d", n)
	}

	n, _ = DeactivateListings(ctx, database, a.ID, b.ID)
	if n != 0 {
		t.Errorf("expected already inactive listings not to count, got %d", n)
	}
}

func TestListingImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	l := createListing(t, database, owner.ID, "Vintage radio")

	if err := SetListingImage(ctx, database, l.ID, []byte{0xff, 0xd8}, "image/jpeg"); err != nil {
		t.Fatalf("SetListingImage: %v", err)
	}

	data, mime, err := GetListingImage(ctx, database, l.ID)
	if err != nil {
		t.Fatalf("GetListingImage: %v", err)
	}
	if mime != "image/jpeg" || len(data) != 2 {
		t.Errorf("unexpected image %q (%d bytes)", mime, len(data))
	}

	got, _ := GetListing(ctx, database, l.ID)
	if !got.HasImage() {
		t.Error("expected listing to report an image")
	}
}

func TestDeleteListingCascadesProposals(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	radio := createListing(t, database, alice.ID, "Vintage radio")
	lamp := createListing(t, database, bob.ID, "Desk lamp")

	id, ok, err := InsertProposal(ctx, database, lamp.ID, radio.ID, bob.ID, alice.ID, "Lamp for the radio?")
	if err != nil || !ok {
		t.Fatalf("InsertProposal: ok=%v err=%v", ok, err)
	}

	if err := DeleteListing(ctx, database, radio.ID); err != nil {
		t.Fatalf("DeleteListing: %v", err)
	}

	p, err := GetProposal(ctx, database, id)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if p != nil {
		t.Error("expected proposal to be deleted with its listing")
	}
}

func TestDeleteListingCascadesOnAnyConnection(t *testing.T) {
	database := db.NewTestFileDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	radio := createListing(t, database, alice.ID, "Vintage radio")
	lamp := createListing(t, database, bob.ID, "Desk lamp")

	if _, ok, err := InsertProposal(ctx, database, lamp.ID, radio.ID, bob.ID, alice.ID, "Lamp for the radio?"); err != nil || !ok {
		t.Fatalf("InsertProposal: ok=%v err=%v", ok, err)
	}

	// Keep the first pooled connection busy so the delete runs on a fresh one.
	held, err := database.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()

	if err := DeleteListing(ctx, database, radio.ID); err != nil {
		t.Fatalf("DeleteListing: %v", err)
	}

	var orphans int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM proposals`).Scan(&orphans); err != nil {
		t.Fatalf("counting proposals: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected proposals to be deleted with the listing, %d left", orphans)
	}

	// The pair is free again once its listing is gone.
	exists, _ := ProposalExists(ctx, database, lamp.ID, radio.ID)
	if exists {
		t.Error("expected no proposal for the deleted pair")
	}
}
