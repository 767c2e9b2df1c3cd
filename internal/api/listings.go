package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/barter/internal/auth"
	"github.com/erazemk/barter/internal/imaging"
	"github.com/erazemk/barter/internal/model"
	"github.com/erazemk/barter/internal/store"
)

// ListingsHandler handles listing endpoints.
type ListingsHandler struct {
	DB *sql.DB
}

// List handles GET /api/listings. Only active listings are returned.
func (h *ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNum, pageSize := pagination(r)

	f := store.ListingFilter{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		Condition:  q.Get("condition"),
		ActiveOnly: true,
		Limit:      pageSize,
		Offset:     (pageNum - 1) * pageSize,
	}
	if v := q.Get("owner_id"); v != "" {
		ownerID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid owner_id")
			return
		}
		f.OwnerID = ownerID
	}

	h.writePage(w, r, f, pageNum, pageSize)
}

// Mine handles GET /api/listings/mine, including inactive listings.
func (h *ListingsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	pageNum, pageSize := pagination(r)

	h.writePage(w, r, store.ListingFilter{
		OwnerID: claims.UserID,
		Limit:   pageSize,
		Offset:  (pageNum - 1) * pageSize,
	}, pageNum, pageSize)
}

func (h *ListingsHandler) writePage(w http.ResponseWriter, r *http.Request, f store.ListingFilter, pageNum, pageSize int) {
	listings, total, err := store.ListListings(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list listings", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list listings")
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	jsonResponse(w, http.StatusOK, listPage[model.Listing]{
		Items:    listings,
		Total:    total,
		Page:     pageNum,
		PageSize: pageSize,
	})
}

// Create handles POST /api/listings.
func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ListingInput
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
	listing, err := store.CreateListing(r.Context(), h.DB, claims.UserID, in)
	if err != nil {
		slog.Error("failed to create listing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}

	slog.Info("listing created", "user", claims.Username, "listing", listing.ID)
	jsonResponse(w, http.StatusCreated, listing)
}

// Get handles GET /api/listings/{id}.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, listing)
}

// Update handles PUT /api/listings/{id}.
func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var in model.ListingInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateListing(r.Context(), h.DB, listing.ID, in); err != nil {
		slog.Error("failed to update listing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update listing")
		return
	}

	updated, err := store.GetListing(r.Context(), h.DB, listing.ID)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get listing")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/listings/{id}. Proposals that reference the
// listing are deleted with it.
func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := store.DeleteListing(r.Context(), h.DB, listing.ID); err != nil {
		slog.Error("failed to delete listing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete listing")
		return
	}

	slog.Info("listing deleted", "user", GetClaims(r.Context()).Username, "listing", listing.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

// Deactivate handles POST /api/listings/{id}/deactivate.
func (h *ListingsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if _, err := store.DeactivateListings(r.Context(), h.DB, listing.ID); err != nil {
		slog.Error("failed to deactivate listing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to deactivate listing")
		return
	}

	listing.Active = false
	jsonResponse(w, http.StatusOK, listing)
}

// UploadImage handles PUT /api/listings/{id}/image. The photo is sent as
// the "image" field of a multipart form.
func (h *ListingsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	listing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "could not read image")
		return
	}

	if err := store.SetListingImage(r.Context(), h.DB, listing.ID, result.Data, result.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/listings/{id}/image.
func (h *ListingsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	data, mime, err := store.GetListingImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// load fetches the {id} listing, writing an error response on failure.
func (h *ListingsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Listing, bool) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return nil, false
	}

	listing, err := store.GetListing(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get listing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get listing")
		return nil, false
	}
	if listing == nil {
		jsonError(w, http.StatusNotFound, "listing not found")
		return nil, false
	}
	return listing, true
}

// loadOwned is load restricted to the listing's owner and admins.
func (h *ListingsHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*model.Listing, bool) {
	listing, ok := h.load(w, r)
	if !ok {
		return nil, false
	}
	if !canManage(GetClaims(r.Context()), listing) {
		jsonError(w, http.StatusForbidden, "not your listing")
		return nil, false
	}
	return listing, true
}

func canManage(claims *auth.Claims, listing *model.Listing) bool {
	return claims != nil && (claims.UserID == listing.OwnerID || model.RoleAtLeast(claims.Role, model.RoleAdmin))
}
