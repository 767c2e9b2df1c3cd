package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	DB *sql.DB
}

type publicProfile struct {
	*model.Profile
	Listings []model.Listing `json:"listings"`
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, GetClaims(r.Context()).UserID, false)
}

// GetPublic handles GET /api/users/{id}/profile. The response includes
// the user's active listings.
func (h *ProfileHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	h.writeProfile(w, r, id, true)
}

func (h *ProfileHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID int64, withListings bool) {
	profile, err := store.GetProfile(r.Context(), h.DB, userID)
	if err != nil {
		slog.Error("failed to get profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if profile == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if !withListings {
		jsonResponse(w, http.StatusOK, profile)
		return
	}

	listings, _, err := store.ListListings(r.Context(), h.DB, store.ListingFilter{OwnerID: userID, ActiveOnly: true})
	if err != nil {
		slog.Error("failed to list profile listings", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	jsonResponse(w, http.StatusOK, publicProfile{Profile: profile, Listings: listings})
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	if err := store.UpdateProfile(r.Context(), h.DB, claims.UserID, in.Phone, in.City, in.Bio); err != nil {
		slog.Error("failed to update profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	h.writeProfile(w, r, claims.UserID, false)
}
