package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

// UsersPage handles GET /admin/users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	s.renderUsers(w, r, http.StatusOK, "")
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	data := &struct {
		PageData
		Users []model.User
	}{
		PageData: s.page(r, "Members"),
		Users:    users,
	}
	data.Error = errMsg
	s.Templates.RenderStatus(w, status, "users.html", data)
}

// UserCreateSubmit handles POST /admin/users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Pick a role.")
		return
	}
	if err := model.ValidateUsername(username); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not hash the password.")
		return
	}

	_, err = store.CreateUser(r.Context(), s.DB, username, hash, role)
	if store.IsUniqueViolation(err) {
		s.renderUsers(w, r, http.StatusConflict, "That username is taken.")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not create the user.")
		return
	}

	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	http.Redirect(w, r, "/admin/users?notice=user", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /admin/users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not hash the password.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, hash); err != nil {
		slog.Error("failed to reset password", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not reset the password.")
		return
	}

	slog.Info("user password reset", "user", claims.Username, "target_user", id)
	http.Redirect(w, r, "/admin/users?notice=password", http.StatusSeeOther)
}

// UserUpdateRoleSubmit handles POST /admin/users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Pick a role.")
		return
	}
	if id == claims.UserID && role != model.RoleAdmin {
		s.renderUsers(w, r, http.StatusBadRequest, "You cannot remove your own admin role.")
		return
	}

	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil {
		slog.Error("failed to update role", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not change the role.")
		return
	}

	slog.Info("user role updated", "user", claims.Username, "target_user", id, "new_role", role)
	http.Redirect(w, r, "/admin/users?notice=user", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /admin/users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}
	if id == claims.UserID {
		s.renderUsers(w, r, http.StatusBadRequest, "You cannot delete yourself.")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not delete the user.")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", id)
	http.Redirect(w, r, "/admin/users?notice=userdeleted", http.StatusSeeOther)
}
