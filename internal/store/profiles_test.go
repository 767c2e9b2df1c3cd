package store

import (
	"context"
	"testing"

	"github.com/erazemk/barter/internal/db"
	"github.com/erazemk/barter/internal/model"
)

func TestUpdateProfile(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	if err := UpdateProfile(ctx, database, user.ID, "+386 40 123 456", "Ljubljana", "Radios and books."); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	p, err := GetProfile(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Phone != "+386 40 123 456" || p.City != "Ljubljana" || p.Bio != "Radios and books." {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestRecordExchange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	carol, _ := CreateUser(ctx, database, "carol", "hash", model.RoleUser)

	if err := RecordExchange(ctx, database, alice.ID, bob.ID); err != nil {
		t.Fatalf("RecordExchange: %v", err)
	}
	RecordExchange(ctx, database, alice.ID, carol.ID)

	want := map[int64]int{alice.ID: 2, bob.ID: 1, carol.ID: 1}
	for id, n := range want {
		p, _ := GetProfile(ctx, database, id)
		if p.SuccessfulExchanges != n {
			t.Errorf("user %d: expected %d exchanges, got %d", id, n, p.SuccessfulExchanges)
		}
	}
}
