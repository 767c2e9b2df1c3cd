package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/db"
	"github.com/erazemk/barter/internal/exchange"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	handler http.Handler
	db      *sql.DB
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	handler, err := NewRouter(database, testJWTSecret, exchange.NewService(database, nil))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testEnv{handler: handler, db: database}
}

func (e *testEnv) user(t *testing.T, username, role string) (int64, *http.Cookie) {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u, err := store.CreateUser(context.Background(), e.db, username, string(hash), role)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := auth.GenerateToken(testJWTSecret, u.ID, u.Username, u.Role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return u.ID, &http.Cookie{Name: cookieName, Value: token}
}

func (e *testEnv) listing(t *testing.T, ownerID int64, title string) *model.Listing {
	t.Helper()
	l, err := store.CreateListing(context.Background(), e.db, ownerID, model.ListingInput{
		Title:       title,
		Description: "Works fine, some scratches on the side.",
		Category:    "electronics",
		Condition:   "good",
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return l
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) post(path string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func body(w *httptest.ResponseRecorder) string {
	b, _ := io.ReadAll(w.Body)
	return string(b)
}

func TestLoginSetsCookie(t *testing.T) {
	env := setupTestServer(t)
	env.user(t, "alice", model.RoleUser)

	w := env.post("/login", nil, url.Values{"username": {"alice"}, "password": {"password123"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !session.HttpOnly || session.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected HttpOnly SameSite=Strict cookie, got %+v", session)
	}

	if w := env.get("/", session); w.Code != http.StatusOK {
		t.Errorf("expected 200 with new session, got %d", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestServer(t)
	env.user(t, "alice", model.RoleUser)

	w := env.post("/login", nil, url.Values{"username": {"alice"}, "password": {"nope"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(body(w), "Wrong username or password.") {
		t.Error("expected error message on login page")
	}
}

func TestRegister(t *testing.T) {
	env := setupTestServer(t)

	w := env.post("/register", nil, url.Values{
		"username": {"bob"}, "password": {"password123"}, "password_confirm": {"password124"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("mismatched passwords: expected 400, got %d", w.Code)
	}

	w = env.post("/register", nil, url.Values{
		"username": {"bob"}, "password": {"password123"}, "password_confirm": {"password123"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if len(w.Result().Cookies()) == 0 {
		t.Error("expected registration to log the user in")
	}

	w = env.post("/register", nil, url.Values{
		"username": {"bob"}, "password": {"password123"}, "password_confirm": {"password123"},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("taken username: expected 409, got %d", w.Code)
	}
}

func TestAnonymousRedirect(t *testing.T) {
	env := setupTestServer(t)

	for _, path := range []string{"/", "/my", "/proposals", "/profile", "/admin/users"} {
		w := env.get(path, nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
			t.Errorf("GET %s: expected redirect to /login, got %d %q", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupTestServer(t)
	_, cookie := env.user(t, "alice", model.RoleUser)

	if w := env.post("/logout", cookie, nil); w.Code != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", w.Code)
	}

	w := env.get("/", cookie)
	if w.Code != http.StatusSeeOther {
		t.Errorf("revoked cookie: expected redirect, got %d", w.Code)
	}
}

func TestHomeSearch(t *testing.T) {
	env := setupTestServer(t)
	aliceID, cookie := env.user(t, "alice", model.RoleUser)
	env.listing(t, aliceID, "Vintage radio")
	env.listing(t, aliceID, "Gaming console")

	w := env.get("/?q=radio", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := body(w)
	if !strings.Contains(page, "Vintage radio") {
		t.Error("expected matching listing on page")
	}
	if strings.Contains(page, "Gaming console") {
		t.Error("expected non-matching listing to be filtered out")
	}
}

func TestListingCreateValidation(t *testing.T) {
	env := setupTestServer(t)
	_, cookie := env.user(t, "alice", model.RoleUser)

	w := env.post("/listings/new", cookie, url.Values{
		"title": {"Bike"}, "description": {"short"}, "category": {"sports"}, "condition": {"good"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid listing: expected 400, got %d", w.Code)
	}

	w = env.post("/listings/new", cookie, url.Values{
		"title":       {"Road bike"},
		"description": {"Aluminium frame, recently serviced, 54cm."},
		"category":    {"sports"},
		"condition":   {"good"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("valid listing: expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/listings/") {
		t.Errorf("expected redirect to listing page, got %q", loc)
	}
}

func TestProposeAndAccept(t *testing.T) {
	env := setupTestServer(t)
	aliceID, alice := env.user(t, "alice", model.RoleUser)
	bobID, bob := env.user(t, "bob", model.RoleUser)
	radio := env.listing(t, aliceID, "Vintage radio")
	lamp := env.listing(t, bobID, "Desk lamp")

	w := env.post(fmt.Sprintf("/listings/%d/propose", radio.ID), bob, url.Values{
		"sender_listing_id": {fmt.Sprint(lamp.ID)},
		"comment":           {"My lamp for your radio?"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("propose: expected 303, got %d: %s", w.Code, body(w))
	}
	if loc := w.Header().Get("Location"); loc != listingURL(radio.ID, "proposed") {
		t.Errorf("unexpected redirect %q", loc)
	}

	received, err := store.ListProposals(context.Background(), env.db, store.ProposalFilter{
		UserID: aliceID, Box: store.BoxReceived,
	})
	if err != nil || len(received) != 1 {
		t.Fatalf("expected 1 received proposal, got %d (%v)", len(received), err)
	}
	id := received[0].ID

	page := body(env.get("/proposals?box=received", alice))
	if !strings.Contains(page, fmt.Sprintf("/proposals/%d/accept", id)) {
		t.Error("expected accept button for pending proposal")
	}

	if w := env.post(fmt.Sprintf("/proposals/%d/accept", id), bob, nil); w.Code != http.StatusForbidden {
		t.Errorf("sender accepting: expected 403, got %d", w.Code)
	}

	w = env.post(fmt.Sprintf("/proposals/%d/accept", id), alice, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("accept: expected 303, got %d", w.Code)
	}

	for _, l := range []*model.Listing{radio, lamp} {
		got, _ := store.GetListing(context.Background(), env.db, l.ID)
		if got.Active {
			t.Errorf("listing %d should be inactive after accept", l.ID)
		}
	}

	if w := env.post(fmt.Sprintf("/proposals/%d/reject", id), alice, nil); w.Code != http.StatusConflict {
		t.Errorf("answering twice: expected 409, got %d", w.Code)
	}
}

func TestProposeErrors(t *testing.T) {
	env := setupTestServer(t)
	aliceID, alice := env.user(t, "alice", model.RoleUser)
	bobID, bob := env.user(t, "bob", model.RoleUser)
	radio := env.listing(t, aliceID, "Vintage radio")
	clock := env.listing(t, aliceID, "Wall clock")
	lamp := env.listing(t, bobID, "Desk lamp")

	propose := func(cookie *http.Cookie, target, offered int64, comment string) *httptest.ResponseRecorder {
		return env.post(fmt.Sprintf("/listings/%d/propose", target), cookie, url.Values{
			"sender_listing_id": {fmt.Sprint(offered)},
			"comment":           {comment},
		})
	}

	if w := propose(bob, radio.ID, lamp.ID, "  too short  "); w.Code != http.StatusBadRequest {
		t.Errorf("short comment: expected 400, got %d", w.Code)
	} else if !strings.Contains(body(w), "too short") {
		t.Error("expected typed comment to be kept in the form")
	}
	if w := propose(alice, radio.ID, clock.ID, "Swap my own things"); w.Code != http.StatusBadRequest {
		t.Errorf("self exchange: expected 400, got %d", w.Code)
	}
	if w := propose(bob, radio.ID, clock.ID, "Offering something I do not own"); w.Code != http.StatusForbidden {
		t.Errorf("not owner: expected 403, got %d", w.Code)
	}
	if w := propose(bob, 9999, lamp.ID, "Listing that does not exist"); w.Code != http.StatusNotFound {
		t.Errorf("missing listing: expected 404, got %d", w.Code)
	}
	if w := propose(bob, radio.ID, lamp.ID, "My lamp for your radio?"); w.Code != http.StatusSeeOther {
		t.Fatalf("first proposal: expected 303, got %d", w.Code)
	}
	if w := propose(bob, radio.ID, lamp.ID, "My lamp for your radio again?"); w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", w.Code)
	}
}

func TestAdminPages(t *testing.T) {
	env := setupTestServer(t)
	_, admin := env.user(t, "root", model.RoleAdmin)
	bobID, bob := env.user(t, "bob", model.RoleUser)

	if w := env.get("/admin/users", bob); w.Code != http.StatusForbidden {
		t.Errorf("member: expected 403, got %d", w.Code)
	}
	w := env.get("/admin/users", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}
	if !strings.Contains(body(w), "bob") {
		t.Error("expected member list to include bob")
	}

	w = env.post(fmt.Sprintf("/admin/users/%d/role", bobID), admin, url.Values{"role": {model.RoleAdmin}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("role change: expected 303, got %d", w.Code)
	}
	// The role is read from the database on each request.
	if w := env.get("/admin/users", bob); w.Code != http.StatusOK {
		t.Errorf("promoted member: expected 200, got %d", w.Code)
	}
}

func TestUserProfilePage(t *testing.T) {
	env := setupTestServer(t)
	aliceID, _ := env.user(t, "alice", model.RoleUser)
	_, bob := env.user(t, "bob", model.RoleUser)
	env.listing(t, aliceID, "Vintage radio")

	w := env.get(fmt.Sprintf("/users/%d", aliceID), bob)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(body(w), "Vintage radio") {
		t.Error("expected active listings on profile")
	}

	if w := env.get("/users/9999", bob); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %d", w.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	env := setupTestServer(t)

	w := env.get("/static/style.css", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("expected text/css, got %q", ct)
	}
}
