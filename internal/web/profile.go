package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

type profilePage struct {
	PageData
	Profile *model.Profile
	Input   model.ProfileInput
}

// ProfilePage handles GET /profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, http.StatusOK, "", nil)
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, status int, errMsg string, in *model.ProfileInput) {
	claims := GetWebClaims(r.Context())
	profile, err := store.GetProfile(r.Context(), s.DB, claims.UserID)
	if err != nil || profile == nil {
		slog.Error("failed to get profile", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load your profile.")
		return
	}

	data := &profilePage{
		PageData: s.page(r, "My profile"),
		Profile:  profile,
		Input:    model.ProfileInput{Phone: profile.Phone, City: profile.City, Bio: profile.Bio},
	}
	if in != nil {
		data.Input = *in
	}
	data.Error = errMsg
	s.Templates.RenderStatus(w, status, "profile.html", data)
}

// ProfileSubmit handles POST /profile.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	in := model.ProfileInput{
		Phone: r.FormValue("phone"),
		City:  r.FormValue("city"),
		Bio:   r.FormValue("bio"),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, err.Error(), &in)
		return
	}

	if err := store.UpdateProfile(r.Context(), s.DB, claims.UserID, in.Phone, in.City, in.Bio); err != nil {
		slog.Error("failed to update profile", "error", err)
		s.renderProfile(w, r, http.StatusInternalServerError, "Could not save your profile.", &in)
		return
	}

	http.Redirect(w, r, "/profile?notice=updated", http.StatusSeeOther)
}

// PasswordSubmit handles POST /profile/password (change own password).
func (s *Server) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		s.renderProfile(w, r, http.StatusBadRequest, "Enter your current and new password.", nil)
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		s.renderProfile(w, r, http.StatusInternalServerError, "Could not load your account.", nil)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		s.renderProfile(w, r, http.StatusBadRequest, "Your current password is wrong.", nil)
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		s.renderProfile(w, r, http.StatusInternalServerError, "Could not save the password.", nil)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash); err != nil {
		s.renderProfile(w, r, http.StatusInternalServerError, "Could not save the password.", nil)
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	http.Redirect(w, r, "/profile?notice=password", http.StatusSeeOther)
}

// UserProfilePage handles GET /users/{id}, a member's public profile with
// their active listings.
func (s *Server) UserProfilePage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "No such member.")
		return
	}

	profile, err := store.GetProfile(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get profile", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load this profile.")
		return
	}
	if profile == nil {
		s.renderError(w, r, http.StatusNotFound, "No such member.")
		return
	}

	listings, _, err := store.ListListings(r.Context(), s.DB, store.ListingFilter{OwnerID: id, ActiveOnly: true})
	if err != nil {
		slog.Error("failed to list profile listings", "error", err)
	}

	s.Templates.Render(w, "user_profile.html", &struct {
		PageData
		Profile  *model.Profile
		Listings []model.Listing
	}{
		PageData: s.page(r, profile.Username),
		Profile:  profile,
		Listings: listings,
	})
}
