package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/db"
	"github.com/erazemk/barter/internal/exchange"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

// seedPassword is the password of every demo account.
const seedPassword = "password123"

var seedListings = []model.ListingInput{
	{Title: "iPhone 12 Pro", Category: "electronics", Condition: "like_new",
		Description: "Great phone in perfect shape. Full set with box and papers. Will swap for a laptop or tablet."},
	{Title: "Trek mountain bike", Category: "sports", Condition: "good",
		Description: "21 speeds, aluminium frame, recently serviced. Looking for an e-scooter or sports gear."},
	{Title: "Programming book collection", Category: "books", Condition: "good",
		Description: "15 books on Python, JavaScript and algorithms, all in great condition. Will swap for an e-reader."},
	{Title: "DeLonghi coffee machine", Category: "home", Condition: "like_new",
		Description: "Automatic machine that makes espresso and cappuccino. Will swap for other kitchen appliances."},
	{Title: "PlayStation 4 Pro", Category: "electronics", Condition: "good",
		Description: "Console with two controllers and five games. Will swap for a Nintendo Switch or an Xbox."},
	{Title: "Yamaha acoustic guitar", Category: "other", Condition: "good",
		Description: "Warm sound, soft strings, gig bag included. Looking for an electric guitar or a keyboard."},
	{Title: "Home fitness set", Category: "sports", Condition: "new",
		Description: "Dumbbells, mat, resistance bands and a jump rope, all unused. Will swap for an exercise bike."},
	{Title: "Leather jacket", Category: "clothing", Condition: "like_new",
		Description: "Men's size L, genuine leather, barely worn. Will swap for other clothes or shoes."},
	{Title: "Lego Technic set", Category: "toys", Condition: "good",
		Description: "Large set with over 2000 pieces and all instructions. Will swap for other sets or board games."},
	{Title: "Canon EOS camera", Category: "electronics", Condition: "good",
		Description: "DSLR with an 18-55mm lens. Looking for a video camera or a drone."},
}

// seedProposals pair indexes into seedListings; accept marks the ones the
// receiver takes.
var seedProposals = []struct {
	from, to int
	comment  string
	accept   bool
}{
	{0, 1, "Great offer, I have been looking for a bike like this.", false},
	{2, 3, "Happy to trade the books for your coffee machine.", false},
	{4, 5, "PlayStation for the guitar sounds like a fair swap!", true},
}

type seedResult struct {
	Users, Listings, Proposals int
}

// seedDemo fills the database with demo users, listings and proposals.
// Records that already exist are skipped, so running it twice is harmless.
func seedDemo(ctx context.Context, dbPath string) (seedResult, error) {
	var res seedResult

	database, err := db.Open(dbPath)
	if err != nil {
		return res, err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return res, err
	}

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return res, fmt.Errorf("hashing password: %w", err)
	}

	users := make([]*model.User, 5)
	for i := range users {
		name := fmt.Sprintf("user%d", i+1)
		u, err := store.GetUserByUsername(ctx, database, name)
		if err != nil {
			return res, err
		}
		if u == nil {
			if u, err = store.CreateUser(ctx, database, name, hash, model.RoleUser); err != nil {
				return res, fmt.Errorf("creating %s: %w", name, err)
			}
			res.Users++
		}
		users[i] = u
	}

	listings := make([]*model.Listing, len(seedListings))
	for i, in := range seedListings {
		owner := users[i%len(users)]
		existing, _, err := store.ListListings(ctx, database, store.ListingFilter{OwnerID: owner.ID, Query: in.Title})
		if err != nil {
			return res, err
		}
		for j := range existing {
			if existing[j].Title == in.Title {
				listings[i] = &existing[j]
			}
		}
		if listings[i] == nil {
			if listings[i], err = store.CreateListing(ctx, database, owner.ID, in); err != nil {
				return res, fmt.Errorf("creating listing %q: %w", in.Title, err)
			}
			res.Listings++
		}
	}

	exchanges := exchange.NewService(database, nil)
	for _, sp := range seedProposals {
		from, to := listings[sp.from], listings[sp.to]
		p, err := exchanges.Create(ctx, exchange.CreateParams{
			SenderListingID:   from.ID,
			ReceiverListingID: to.ID,
			SenderID:          from.OwnerID,
			Comment:           sp.comment,
		})
		if errors.Is(err, exchange.ErrDuplicateProposal) || errors.Is(err, exchange.ErrInactiveListing) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("proposing %q for %q: %w", from.Title, to.Title, err)
		}
		res.Proposals++

		if sp.accept {
			if _, err := exchanges.Accept(ctx, p.ID, to.OwnerID); err != nil {
				return res, fmt.Errorf("accepting proposal %d: %w", p.ID, err)
			}
		}
	}

	slog.Info("demo data seeded", "users", res.Users, "listings", res.Listings, "proposals", res.Proposals)
	return res, nil
}
