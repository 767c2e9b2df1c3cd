package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/exchange"
	"github.com/erazemk/barter/internal/model"
	webembed "github.com/erazemk/barter/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

var categoryNames = map[string]string{
	"electronics": "Electronics",
	"clothing":    "Clothing",
	"home":        "Home & garden",
	"sports":      "Sports & outdoors",
	"books":       "Books",
	"toys":        "Toys & games",
	"auto":        "Auto & moto",
	"beauty":      "Beauty & health",
	"other":       "Other",
}

var conditionNames = map[string]string{
	"new":      "New",
	"like_new": "Like new",
	"good":     "Good",
	"fair":     "Fair",
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleUser:
				return "Member"
			default:
				return role
			}
		},
		"statusName": func(status string) string {
			switch status {
			case model.ProposalPending:
				return "Pending"
			case model.ProposalAccepted:
				return "Accepted"
			case model.ProposalRejected:
				return "Rejected"
			default:
				return status
			}
		},
		"categoryName":  lookup(categoryNames),
		"conditionName": lookup(conditionNames),
		"categories":    func() []string { return model.Categories },
		"conditions":    func() []string { return model.Conditions },
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"excerpt": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return strings.TrimSpace(string(r[:n])) + "…"
		},
	}
}

func lookup(names map[string]string) func(string) string {
	return func(key string) string {
		if name, ok := names[key]; ok {
			return name
		}
		return key
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"register.html",
		"listings.html",
		"listing_detail.html",
		"listing_form.html",
		"my_listings.html",
		"proposals.html",
		"profile.html",
		"user_profile.html",
		"users.html",
		"error.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with a 200 status.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
	Exchange  *exchange.Service
}

// page returns the base page data for the current request.
func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{
		Title:   title,
		User:    GetWebClaims(r.Context()),
		Success: notices[r.URL.Query().Get("notice")],
	}
}

// notices are the confirmation messages shown after a redirect.
var notices = map[string]string{
	"created":     "Listing published.",
	"updated":     "Changes saved.",
	"deleted":     "Listing deleted.",
	"image":       "Photo uploaded.",
	"proposed":    "Proposal sent.",
	"accepted":    "Exchange accepted. Both listings are now closed.",
	"rejected":    "Proposal rejected.",
	"password":    "Password changed.",
	"user":        "User saved.",
	"userdeleted": "User deleted.",
}

// renderError shows the error page with the given status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := s.page(r, http.StatusText(status))
	data.Error = message
	s.Templates.RenderStatus(w, status, "error.html", &data)
}
