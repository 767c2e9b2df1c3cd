package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const cookieName = "token"

// CookieAuthMiddleware validates the JWT cookie, rejects revoked tokens and
// deleted accounts, and adds the claims to the context. Anonymous visitors
// are sent to the login page.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := cookieClaims(r, secret, db)
			if !ok {
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cookieClaims returns the claims of a valid, unrevoked session cookie with
// the role refreshed from the database.
func cookieClaims(r *http.Request, secret string, db *sql.DB) (*auth.Claims, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		return nil, false
	}

	revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
	if err != nil {
		slog.Error("failed to check token revocation", "error", err)
		return nil, false
	}
	if revoked {
		return nil, false
	}

	user, err := store.GetUser(r.Context(), db, claims.UserID)
	if err != nil {
		slog.Error("failed to load session user", "error", err)
		return nil, false
	}
	if user == nil || user.DeletedAt != nil {
		return nil, false
	}
	claims.Role = user.Role
	return claims, true
}

// requireAdmin wraps a handler so only administrators reach it.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetWebClaims(r.Context())
		if claims == nil || !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
			s.renderError(w, r, http.StatusForbidden, "Only administrators can open this page.")
			return
		}
		next(w, r)
	}
}

// setAuthCookie stores a session token.
func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}
