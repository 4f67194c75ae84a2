package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/hvichare/go-estate/internal/repo"
)

type ListingHandler struct {
	Repo *repo.ListingRepo
}

type listingInput struct {
	Name          string   `json:"name" validate:"required,min=2,max=255"`
	Description   string   `json:"description" validate:"required,max=2000"`
	Address       string   `json:"address" validate:"required,max=500"`
	Type          string   `json:"type" validate:"required,oneof=sale rent"`
	Bedrooms      int      `json:"bedrooms" validate:"required,min=1,max=20"`
	Bathrooms     int      `json:"bathrooms" validate:"required,min=1,max=20"`
	RegularPrice  int64    `json:"regularPrice" validate:"required,min=1"`
	DiscountPrice int64    `json:"discountPrice" validate:"min=0"`
	Offer         bool     `json:"offer"`
	Parking       bool     `json:"parking"`
	Furnished     bool     `json:"furnished"`
	ImageURLs     []string `json:"imageUrls" validate:"required,min=1,max=6,dive,url"`
}

// validateListing runs struct validation plus the price rule the tags
// cannot express: a discounted offer must stay below the regular price.
func validateListing(in listingInput) error {
	validate := validator.New()
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.Offer && in.DiscountPrice >= in.RegularPrice {
		return errors.New("discount price must be lower than regular price")
	}
	return nil
}

// listingPatch is the update payload. Fields left out of the body stay
// nil and keep the stored value, matching the partial profile update.
type listingPatch struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Address       *string  `json:"address"`
	Type          *string  `json:"type"`
	Bedrooms      *int     `json:"bedrooms"`
	Bathrooms     *int     `json:"bathrooms"`
	RegularPrice  *int64   `json:"regularPrice"`
	DiscountPrice *int64   `json:"discountPrice"`
	Offer         *bool    `json:"offer"`
	Parking       *bool    `json:"parking"`
	Furnished     *bool    `json:"furnished"`
	ImageURLs     []string `json:"imageUrls"`
}

func (p listingPatch) apply(l *models.Listing) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.RegularPrice != nil {
		l.RegularPrice = *p.RegularPrice
	}
	if p.DiscountPrice != nil {
		l.DiscountPrice = *p.DiscountPrice
	}
	if p.Offer != nil {
		l.Offer = *p.Offer
	}
	if p.Parking != nil {
		l.Parking = *p.Parking
	}
	if p.Furnished != nil {
		l.Furnished = *p.Furnished
	}
	if p.ImageURLs != nil {
		l.ImageURLs = p.ImageURLs
	}
}

// inputFromListing projects a listing back into the validated shape so
// the merged state of a partial update passes through the same rules
// as a freshly created listing.
func inputFromListing(l *models.Listing) listingInput {
	return listingInput{
		Name:          l.Name,
		Description:   l.Description,
		Address:       l.Address,
		Type:          l.Type,
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		RegularPrice:  l.RegularPrice,
		DiscountPrice: l.DiscountPrice,
		Offer:         l.Offer,
		Parking:       l.Parking,
		Furnished:     l.Furnished,
		ImageURLs:     l.ImageURLs,
	}
}

func (in listingInput) toModel() *models.Listing {
	return &models.Listing{
		Name:          in.Name,
		Description:   in.Description,
		Address:       in.Address,
		Type:          in.Type,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		RegularPrice:  in.RegularPrice,
		DiscountPrice: in.DiscountPrice,
		Offer:         in.Offer,
		Parking:       in.Parking,
		Furnished:     in.Furnished,
		ImageURLs:     in.ImageURLs,
	}
}

//
// ==========================
// Create Listing
// ==========================
//

func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var input listingInput

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validateListing(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The owner is always the authenticated identity, never the payload.
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	listing := input.toModel()
	listing.UserRef = userID

	created, err := h.Repo.Create(r.Context(), listing)
	if err != nil {
		slog.Error("create listing failed", "error", err, "user_id", userID)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusCreated, created)
}

//
// ==========================
// Get Listing By ID
// ==========================
//

func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "Listing not found!", http.StatusNotFound)
			return
		}
		slog.Error("get listing failed", "error", err, "listing_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, listing)
}

//
// ==========================
// Update Listing (owner only)
// ==========================
//

func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "Listing not found!", http.StatusNotFound)
			return
		}
		slog.Error("get listing failed", "error", err, "listing_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID != listing.UserRef {
		JSONError(w, "You can only update your own listings!", http.StatusUnauthorized)
		return
	}

	var patch listingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	patch.apply(listing)

	if err := validateListing(inputFromListing(listing)); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.Repo.Update(r.Context(), id, listing)
	if err != nil {
		slog.Error("update listing failed", "error", err, "listing_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, updated)
}

//
// ==========================
// Delete Listing (owner only)
// ==========================
//

func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "Listing not found!", http.StatusNotFound)
			return
		}
		slog.Error("get listing failed", "error", err, "listing_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID != listing.UserRef {
		JSONError(w, "You can only delete your own listings!", http.StatusUnauthorized)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		slog.Error("delete listing failed", "error", err, "listing_id", id)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, "Listing has been deleted!")
}

//
// ==========================
// Search Listings
// ==========================
//

func (h *ListingHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := repo.SearchParams{
		SearchTerm: q.Get("searchTerm"),
		Offer:      q.Get("offer") == "true",
		Parking:    q.Get("parking") == "true",
		Furnished:  q.Get("furnished") == "true",
		Type:       q.Get("type"),
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
		Limit:      9,
	}

	if l := q.Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			params.Limit = val
		}
	}
	if s := q.Get("startIndex"); s != "" {
		if val, err := strconv.Atoi(s); err == nil && val >= 0 {
			params.Offset = val
		}
	}

	listings, err := h.Repo.Search(r.Context(), params)
	if err != nil {
		slog.Error("search listings failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	JSON(w, http.StatusOK, listings)
}
