package models

import "time"

// Listing types accepted by the marketplace.
const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

// MaxListingImages caps how many image URLs a listing may carry.
const MaxListingImages = 6

type Listing struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Type          string    `json:"type"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	RegularPrice  int64     `json:"regularPrice"`
	DiscountPrice int64     `json:"discountPrice"`
	Offer         bool      `json:"offer"`
	Parking       bool      `json:"parking"`
	Furnished     bool      `json:"furnished"`
	ImageURLs     []string  `json:"imageUrls"`
	UserRef       string    `json:"userRef"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
