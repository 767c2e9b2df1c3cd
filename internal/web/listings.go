package web

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/barter/internal/imaging"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

// ListingsPerPage is the page size of listing grids.
const ListingsPerPage = 12

// Pagination describes the pager under a listing grid.
type Pagination struct {
	Page       int
	TotalPages int
	Total      int
	PrevURL    string
	NextURL    string
}

func newPagination(r *http.Request, page, total int) Pagination {
	p := Pagination{
		Page:       page,
		Total:      total,
		TotalPages: max(1, int(math.Ceil(float64(total)/ListingsPerPage))),
	}
	link := func(n int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		q.Del("notice")
		return r.URL.Path + "?" + q.Encode()
	}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if page < p.TotalPages {
		p.NextURL = link(page + 1)
	}
	return p
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Home handles GET /, the searchable grid of active listings.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageParam(r)

	f := store.ListingFilter{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		Condition:  q.Get("condition"),
		ActiveOnly: true,
		Limit:      ListingsPerPage,
		Offset:     (page - 1) * ListingsPerPage,
	}
	listings, total, err := store.ListListings(r.Context(), s.DB, f)
	if err != nil {
		slog.Error("failed to list listings", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load listings.")
		return
	}

	s.Templates.Render(w, "listings.html", &struct {
		PageData
		Listings   []model.Listing
		Filter     store.ListingFilter
		Pagination Pagination
	}{
		PageData:   s.page(r, "Browse"),
		Listings:   listings,
		Filter:     f,
		Pagination: newPagination(r, page, total),
	})
}

// MyListingsPage handles GET /my, the caller's listings including closed ones.
func (s *Server) MyListingsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	page := pageParam(r)

	listings, total, err := store.ListListings(r.Context(), s.DB, store.ListingFilter{
		OwnerID: claims.UserID,
		Limit:   ListingsPerPage,
		Offset:  (page - 1) * ListingsPerPage,
	})
	if err != nil {
		slog.Error("failed to list own listings", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load your listings.")
		return
	}

	s.Templates.Render(w, "my_listings.html", &struct {
		PageData
		Listings   []model.Listing
		Pagination Pagination
	}{
		PageData:   s.page(r, "My listings"),
		Listings:   listings,
		Pagination: newPagination(r, page, total),
	})
}

type listingDetail struct {
	PageData
	Listing *model.Listing
	IsOwner bool
	// The viewer's active listings they can offer in exchange.
	Offerable []model.Listing
	Comment   string
}

// ListingDetailPage handles GET /listings/{id}.
func (s *Server) ListingDetailPage(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.loadListing(w, r)
	if !ok {
		return
	}
	data, err := s.listingDetail(r, listing)
	if err != nil {
		slog.Error("failed to load listing page", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load this listing.")
		return
	}
	s.Templates.Render(w, "listing_detail.html", data)
}

func (s *Server) listingDetail(r *http.Request, listing *model.Listing) (*listingDetail, error) {
	claims := GetWebClaims(r.Context())
	data := &listingDetail{
		PageData: s.page(r, listing.Title),
		Listing:  listing,
		IsOwner:  claims.UserID == listing.OwnerID,
	}
	if data.IsOwner || !listing.Active {
		return data, nil
	}

	offerable, _, err := store.ListListings(r.Context(), s.DB, store.ListingFilter{
		OwnerID:    claims.UserID,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	data.Offerable = offerable
	return data, nil
}

type listingForm struct {
	PageData
	Listing *model.Listing // nil when creating
	Input   model.ListingInput
}

// ListingNewPage handles GET /listings/new.
func (s *Server) ListingNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "listing_form.html", &listingForm{
		PageData: s.page(r, "New listing"),
		Input:    model.ListingInput{Condition: "good"},
	})
}

// ListingCreateSubmit handles POST /listings/new.
func (s *Server) ListingCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	in, photo, err := parseListingForm(w, r)
	if err != nil {
		data := &listingForm{PageData: s.page(r, "New listing"), Input: in}
		data.Error = err.Error()
		s.Templates.RenderStatus(w, http.StatusBadRequest, "listing_form.html", data)
		return
	}

	listing, err := store.CreateListing(r.Context(), s.DB, claims.UserID, in)
	if err != nil {
		slog.Error("failed to create listing", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not save the listing.")
		return
	}
	if photo != nil {
		if err := store.SetListingImage(r.Context(), s.DB, listing.ID, photo.Data, photo.MIME); err != nil {
			slog.Error("failed to save image", "error", err)
		}
	}

	slog.Info("listing created", "user", claims.Username, "listing", listing.ID)
	http.Redirect(w, r, fmt.Sprintf("/listings/%d?notice=created", listing.ID), http.StatusSeeOther)
}

// ListingEditPage handles GET /listings/{id}/edit.
func (s *Server) ListingEditPage(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.loadOwnListing(w, r)
	if !ok {
		return
	}
	s.Templates.Render(w, "listing_form.html", &listingForm{
		PageData: s.page(r, "Edit listing"),
		Listing:  listing,
		Input: model.ListingInput{
			Title:       listing.Title,
			Description: listing.Description,
			Category:    listing.Category,
			Condition:   listing.Condition,
			ImageURL:    listing.ImageURL,
		},
	})
}

// ListingUpdateSubmit handles POST /listings/{id}/edit.
func (s *Server) ListingUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.loadOwnListing(w, r)
	if !ok {
		return
	}

	in, photo, err := parseListingForm(w, r)
	if err != nil {
		data := &listingForm{PageData: s.page(r, "Edit listing"), Listing: listing, Input: in}
		data.Error = err.Error()
		s.Templates.RenderStatus(w, http.StatusBadRequest, "listing_form.html", data)
		return
	}

	if err := store.UpdateListing(r.Context(), s.DB, listing.ID, in); err != nil {
		slog.Error("failed to update listing", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not save the listing.")
		return
	}
	if photo != nil {
		if err := store.SetListingImage(r.Context(), s.DB, listing.ID, photo.Data, photo.MIME); err != nil {
			slog.Error("failed to save image", "error", err)
		}
	}

	http.Redirect(w, r, fmt.Sprintf("/listings/%d?notice=updated", listing.ID), http.StatusSeeOther)
}

// ListingDeleteSubmit handles POST /listings/{id}/delete.
func (s *Server) ListingDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.loadOwnListing(w, r)
	if !ok {
		return
	}

	if err := store.DeleteListing(r.Context(), s.DB, listing.ID); err != nil {
		slog.Error("failed to delete listing", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not delete the listing.")
		return
	}

	slog.Info("listing deleted", "user", GetWebClaims(r.Context()).Username, "listing", listing.ID)
	http.Redirect(w, r, "/my?notice=deleted", http.StatusSeeOther)
}

// ListingDeactivateSubmit handles POST /listings/{id}/deactivate.
func (s *Server) ListingDeactivateSubmit(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.loadOwnListing(w, r)
	if !ok {
		return
	}

	if _, err := store.DeactivateListings(r.Context(), s.DB, listing.ID); err != nil {
		slog.Error("failed to deactivate listing", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not close the listing.")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/listings/%d?notice=updated", listing.ID), http.StatusSeeOther)
}

// ListingImageSubmit handles POST /listings/{id}/image.
func (s *Server) ListingImageSubmit(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.loadOwnListing(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The file is too large.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Choose a photo to upload.")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, photoError(err))
		return
	}

	if err := store.SetListingImage(r.Context(), s.DB, listing.ID, result.Data, result.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not save the photo.")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/listings/%d?notice=image", listing.ID), http.StatusSeeOther)
}

// ListingImageGet handles GET /listings/{id}/image.
func (s *Server) ListingImageGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := store.GetListingImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// loadListing fetches the {id} listing, rendering an error page on failure.
func (s *Server) loadListing(w http.ResponseWriter, r *http.Request) (*model.Listing, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "No such listing.")
		return nil, false
	}

	listing, err := store.GetListing(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get listing", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load this listing.")
		return nil, false
	}
	if listing == nil {
		s.renderError(w, r, http.StatusNotFound, "No such listing.")
		return nil, false
	}
	return listing, true
}

// loadOwnListing is loadListing restricted to the owner and admins.
func (s *Server) loadOwnListing(w http.ResponseWriter, r *http.Request) (*model.Listing, bool) {
	listing, ok := s.loadListing(w, r)
	if !ok {
		return nil, false
	}
	claims := GetWebClaims(r.Context())
	if claims.UserID != listing.OwnerID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		s.renderError(w, r, http.StatusForbidden, "You can only change your own listings.")
		return nil, false
	}
	return listing, true
}

// parseListingForm reads and validates the listing form. The photo is
// optional; when present it is already processed.
func parseListingForm(w http.ResponseWriter, r *http.Request) (model.ListingInput, *imaging.ProcessResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return model.ListingInput{}, nil, errors.New("The form could not be read. Is the photo too large?")
	}

	in := model.ListingInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		ImageURL:    r.FormValue("image_url"),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return in, nil, err
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, errors.New("The photo could not be read.")
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		return in, nil, errors.New(photoError(err))
	}
	return in, photo, nil
}

func photoError(err error) string {
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return "Photos must be JPEG, PNG, GIF or WebP."
	case errors.Is(err, imaging.ErrTooLarge):
		return "The photo is too large."
	default:
		return "The photo could not be read."
	}
}

// listingURL returns the detail page of a listing with a notice.
func listingURL(id int64, notice string) string {
	return fmt.Sprintf("/listings/%d?notice=%s", id, url.QueryEscape(notice))
}
