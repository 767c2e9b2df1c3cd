package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

type authForm struct {
	PageData
	Username string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &authForm{PageData: PageData{Title: "Log in"}})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "login.html", &authForm{
			PageData: PageData{Title: "Log in", Error: msg},
			Username: username,
		})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Enter your username and password.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		fail(http.StatusInternalServerError, "Something went wrong, please try again.")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		fail(http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		fail(http.StatusInternalServerError, "Could not log you in, please try again.")
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &authForm{PageData: PageData{Title: "Sign up"}})
}

// RegisterSubmit handles POST /register. The new user is logged in straight away.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "register.html", &authForm{
			PageData: PageData{Title: "Sign up", Error: msg},
			Username: username,
		})
	}

	if err := model.ValidateUsername(username); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}
	if password != r.FormValue("password_confirm") {
		fail(http.StatusBadRequest, "Passwords do not match.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fail(http.StatusInternalServerError, "Something went wrong, please try again.")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, username, hash, model.RoleUser)
	if store.IsUniqueViolation(err) {
		fail(http.StatusConflict, "That username is taken.")
		return
	}
	if err != nil {
		slog.Error("failed to register user", "error", err)
		fail(http.StatusInternalServerError, "Something went wrong, please try again.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	setAuthCookie(w, token)
	slog.Info("user registered", "user", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked so a copied
// cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.Error("failed to revoke token", "error", err)
			} else {
				slog.Info("user logged out", "user", claims.Username)
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
