package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/barter/internal/exchange"
	webembed "github.com/erazemk/barter/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string, exchanges *exchange.Service) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
		Exchange:  exchanges,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	authed := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return cookieAuth(s.requireAdmin(h)) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Listings.
	mux.Handle("GET /{$}", authed(s.Home))
	mux.Handle("GET /my", authed(s.MyListingsPage))
	mux.Handle("GET /listings/new", authed(s.ListingNewPage))
	mux.Handle("POST /listings/new", authed(s.ListingCreateSubmit))
	mux.Handle("GET /listings/{id}", authed(s.ListingDetailPage))
	mux.Handle("GET /listings/{id}/edit", authed(s.ListingEditPage))
	mux.Handle("POST /listings/{id}/edit", authed(s.ListingUpdateSubmit))
	mux.Handle("POST /listings/{id}/delete", authed(s.ListingDeleteSubmit))
	mux.Handle("POST /listings/{id}/deactivate", authed(s.ListingDeactivateSubmit))
	mux.Handle("POST /listings/{id}/image", authed(s.ListingImageSubmit))
	mux.Handle("GET /listings/{id}/image", authed(s.ListingImageGet))

	// Proposals.
	mux.Handle("POST /listings/{id}/propose", authed(s.ProposeSubmit))
	mux.Handle("GET /proposals", authed(s.ProposalsPage))
	mux.Handle("POST /proposals/{id}/accept", authed(s.AcceptSubmit))
	mux.Handle("POST /proposals/{id}/reject", authed(s.RejectSubmit))

	// Profiles.
	mux.Handle("GET /profile", authed(s.ProfilePage))
	mux.Handle("POST /profile", authed(s.ProfileSubmit))
	mux.Handle("POST /profile/password", authed(s.PasswordSubmit))
	mux.Handle("GET /users/{id}", authed(s.UserProfilePage))

	// Members (admin only).
	mux.Handle("GET /admin/users", admin(s.UsersPage))
	mux.Handle("POST /admin/users", admin(s.UserCreateSubmit))
	mux.Handle("POST /admin/users/{id}/password", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /admin/users/{id}/role", admin(s.UserUpdateRoleSubmit))
	mux.Handle("POST /admin/users/{id}/delete", admin(s.UserDeleteSubmit))

	return mux, nil
}
