package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Listing is an item a user offers for exchange.
type Listing struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`
	ImageMime   string    `json:"image_mime,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}

// HasImage reports whether the listing has an uploaded photo.
func (l Listing) HasImage() bool {
	return l.ImageMime != ""
}

// Categories in display order.
var Categories = []string{
	"electronics", "clothing", "home", "sports", "books", "toys", "auto", "beauty", "other",
}

// Conditions in display order.
var Conditions = []string{"new", "like_new", "good", "fair"}

// Listing field limits.
const (
	MinTitleLength       = 5
	MaxTitleLength       = 200
	MinDescriptionLength = 20
)

// ListingInput is the user-editable part of a listing.
type ListingInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	ImageURL    string `json:"image_url"`
}

// Normalize trims surrounding whitespace from all fields.
func (in *ListingInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Condition = strings.TrimSpace(in.Condition)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

// Validate checks field lengths, the category and condition vocabularies
// and the optional image URL.
func (in *ListingInput) Validate() error {
	if n := utf8.RuneCountInString(in.Title); n < MinTitleLength || n > MaxTitleLength {
		return fmt.Errorf("title must be between %d and %d characters", MinTitleLength, MaxTitleLength)
	}
	if utf8.RuneCountInString(in.Description) < MinDescriptionLength {
		return fmt.Errorf("description must be at least %d characters", MinDescriptionLength)
	}
	if !contains(Categories, in.Category) {
		return fmt.Errorf("unknown category %q", in.Category)
	}
	if !contains(Conditions, in.Condition) {
		return fmt.Errorf("unknown condition %q", in.Condition)
	}
	if in.ImageURL != "" {
		u, err := url.Parse(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("image_url must be an http(s) URL")
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
