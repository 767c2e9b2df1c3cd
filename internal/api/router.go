package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/barter/internal/exchange"
	"github.com/erazemk/barter/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, exchanges *exchange.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	profileHandler := &ProfileHandler{DB: db}
	listingsHandler := &ListingsHandler{DB: db}
	proposalsHandler := &ProposalsHandler{DB: db, Exchange: exchanges}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Account.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("GET /api/profile", authed(profileHandler.Get))
	mux.Handle("PUT /api/profile", authed(profileHandler.Update))
	mux.Handle("GET /api/users/{id}/profile", authed(profileHandler.GetPublic))

	// Listings.
	mux.Handle("GET /api/listings", authed(listingsHandler.List))
	mux.Handle("POST /api/listings", authed(listingsHandler.Create))
	mux.Handle("GET /api/listings/mine", authed(listingsHandler.Mine))
	mux.Handle("GET /api/listings/{id}", authed(listingsHandler.Get))
	mux.Handle("PUT /api/listings/{id}", authed(listingsHandler.Update))
	mux.Handle("DELETE /api/listings/{id}", authed(listingsHandler.Delete))
	mux.Handle("POST /api/listings/{id}/deactivate", authed(listingsHandler.Deactivate))
	mux.Handle("PUT /api/listings/{id}/image", authed(listingsHandler.UploadImage))
	mux.Handle("GET /api/listings/{id}/image", authed(listingsHandler.GetImage))

	// Proposals.
	mux.Handle("GET /api/proposals", authed(proposalsHandler.List))
	mux.Handle("POST /api/proposals", authed(proposalsHandler.Create))
	mux.Handle("GET /api/proposals/{id}", authed(proposalsHandler.Get))
	mux.Handle("POST /api/proposals/{id}/accept", authed(proposalsHandler.Accept))
	mux.Handle("POST /api/proposals/{id}/reject", authed(proposalsHandler.Reject))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	return mux
}
