package model

import (
	"strings"
	"testing"
)

func validInput() ListingInput {
	return ListingInput{
		Title:       "Road bike",
		Description: "Aluminium frame, recently serviced, 54cm.",
		Category:    "sports",
		Condition:   "good",
	}
}

func TestListingInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *ListingInput)
		wantErr bool
	}{
		{"valid", func(in *ListingInput) {}, false},
		{"short title", func(in *ListingInput) { in.Title = "Bike" }, true},
		{"long title", func(in *ListingInput) { in.Title = strings.Repeat("x", MaxTitleLength+1) }, true},
		{"cyrillic title counts runes", func(in *ListingInput) { in.Title = "Книга" }, false},
		{"short description", func(in *ListingInput) { in.Description = "too short" }, true},
		{"unknown category", func(in *ListingInput) { in.Category = "weapons" }, true},
		{"unknown condition", func(in *ListingInput) { in.Condition = "broken" }, true},
		{"https image url", func(in *ListingInput) { in.ImageURL = "https://example.com/a.jpg" }, false},
		{"ftp image url", func(in *ListingInput) { in.ImageURL = "ftp://example.com/a.jpg" }, true},
		{"relative image url", func(in *ListingInput) { in.ImageURL = "/a.jpg" }, true},
	}

	for _, tt := range tests {
		in := validInput()
		tt.mutate(&in)
		err := in.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestListingInputNormalize(t *testing.T) {
	in := ListingInput{Title: "  Road bike \n", ImageURL: " https://example.com/a.jpg "}
	in.Normalize()
	if in.Title != "Road bike" {
		t.Errorf("expected trimmed title, got %q", in.Title)
	}
	if in.ImageURL != "https://example.com/a.jpg" {
		t.Errorf("expected trimmed image url, got %q", in.ImageURL)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		expected bool
	}{
		{ProposalPending, ProposalAccepted, true},
		{ProposalPending, ProposalRejected, true},
		{ProposalPending, ProposalPending, false},
		{ProposalAccepted, ProposalRejected, false},
		{ProposalAccepted, ProposalPending, false},
		{ProposalRejected, ProposalAccepted, false},
		{ProposalRejected, ProposalPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.expected {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}

func TestProfileInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      ProfileInput
		wantErr bool
	}{
		{"empty", ProfileInput{}, false},
		{"filled", ProfileInput{Phone: "+386 40 123 456", City: "Ljubljana", Bio: "Collector of old radios."}, false},
		{"long phone", ProfileInput{Phone: strings.Repeat("1", MaxPhoneLength+1)}, true},
		{"long city", ProfileInput{City: strings.Repeat("a", MaxCityLength+1)}, true},
		{"long bio", ProfileInput{Bio: strings.Repeat("b", MaxBioLength+1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
