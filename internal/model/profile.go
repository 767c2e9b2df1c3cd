package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Profile holds the public details of a user. Every user has exactly one,
// created together with the user.
type Profile struct {
	UserID              int64     `json:"user_id"`
	Username            string    `json:"username"`
	Phone               string    `json:"phone,omitempty"`
	City                string    `json:"city,omitempty"`
	Bio                 string    `json:"bio,omitempty"`
	SuccessfulExchanges int       `json:"successful_exchanges"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Profile field limits.
const (
	MaxPhoneLength = 20
	MaxCityLength  = 100
	MaxBioLength   = 1000
)

// ProfileInput is the user-editable part of a profile.
type ProfileInput struct {
	Phone string `json:"phone"`
	City  string `json:"city"`
	Bio   string `json:"bio"`
}

// Normalize trims surrounding whitespace from all fields.
func (in *ProfileInput) Normalize() {
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = strings.TrimSpace(in.City)
	in.Bio = strings.TrimSpace(in.Bio)
}

// Validate checks field lengths. All fields are optional.
func (in *ProfileInput) Validate() error {
	switch {
	case utf8.RuneCountInString(in.Phone) > MaxPhoneLength:
		return fmt.Errorf("phone must be at most %d characters", MaxPhoneLength)
	case utf8.RuneCountInString(in.City) > MaxCityLength:
		return fmt.Errorf("city must be at most %d characters", MaxCityLength)
	case utf8.RuneCountInString(in.Bio) > MaxBioLength:
		return fmt.Errorf("bio must be at most %d characters", MaxBioLength)
	}
	return nil
}
