package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/db"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

func TestSeedDemo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.sqlite3")
	ctx := context.Background()

	res, err := seedDemo(ctx, path)
	if err != nil {
		t.Fatalf("seedDemo: %v", err)
	}
	if res.Users != 5 || res.Listings != len(seedListings) || res.Proposals != len(seedProposals) {
		t.Errorf("unexpected first run result %+v", res)
	}

	// Running again adds nothing.
	res, err = seedDemo(ctx, path)
	if err != nil {
		t.Fatalf("second seedDemo: %v", err)
	}
	if res != (seedResult{}) {
		t.Errorf("expected second run to be a no-op, got %+v", res)
	}

	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	u, err := store.GetUserByUsername(ctx, database, "user1")
	if err != nil || u == nil {
		t.Fatalf("expected user1, got %v (%v)", u, err)
	}
	if !auth.CheckPassword(u.PasswordHash, seedPassword) {
		t.Error("expected demo password to work")
	}

	active, total, _ := store.ListListings(ctx, database, store.ListingFilter{ActiveOnly: true})
	if total != len(seedListings)-2 || len(active) != total {
		t.Errorf("expected the accepted pair to be closed, %d of %d active", total, len(seedListings))
	}

	// user5 offered the PlayStation to user1, who accepted.
	sender, _ := store.GetUserByUsername(ctx, database, "user5")
	accepted, _ := store.ListProposals(ctx, database, store.ProposalFilter{
		UserID: sender.ID, Box: store.BoxSent, Status: model.ProposalAccepted,
	})
	if len(accepted) != 1 {
		t.Errorf("expected one accepted proposal, got %d", len(accepted))
	}
}
