package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/lib/pq"
)

// ========================
// REPOSITORY STRUCT
// ========================

type ListingRepo struct {
	DB *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{DB: db}
}

const listingColumns = `id, name, description, address, type, bedrooms, bathrooms,
	regular_price, discount_price, offer, parking, furnished, image_urls, user_ref,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	l := &models.Listing{}
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Description,
		&l.Address,
		&l.Type,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.RegularPrice,
		&l.DiscountPrice,
		&l.Offer,
		&l.Parking,
		&l.Furnished,
		pq.Array(&l.ImageURLs),
		&l.UserRef,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// ========================
// CREATE LISTING
// ========================

func (r *ListingRepo) Create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	query := `
		INSERT INTO listings (id, name, description, address, type, bedrooms, bathrooms,
			regular_price, discount_price, offer, parking, furnished, image_urls, user_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + listingColumns

	id := uuid.NewString()
	return scanListing(r.DB.QueryRowContext(ctx, query,
		id, l.Name, l.Description, l.Address, l.Type, l.Bedrooms, l.Bathrooms,
		l.RegularPrice, l.DiscountPrice, l.Offer, l.Parking, l.Furnished,
		pq.Array(l.ImageURLs), l.UserRef,
	))
}

// ========================
// GET LISTING BY ID
// ========================

func (r *ListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE id = $1
	`
	return scanListing(r.DB.QueryRowContext(ctx, query, id))
}

// ========================
// UPDATE LISTING
// ========================

// Update replaces the mutable fields of a listing. Ownership is checked by
// the handler before calling; user_ref never changes.
func (r *ListingRepo) Update(ctx context.Context, id string, l *models.Listing) (*models.Listing, error) {
	query := `
		UPDATE listings
		SET name = $1, description = $2, address = $3, type = $4, bedrooms = $5,
		    bathrooms = $6, regular_price = $7, discount_price = $8, offer = $9,
		    parking = $10, furnished = $11, image_urls = $12, updated_at = now()
		WHERE id = $13
		RETURNING ` + listingColumns

	return scanListing(r.DB.QueryRowContext(ctx, query,
		l.Name, l.Description, l.Address, l.Type, l.Bedrooms, l.Bathrooms,
		l.RegularPrice, l.DiscountPrice, l.Offer, l.Parking, l.Furnished,
		pq.Array(l.ImageURLs), id,
	))
}

// ========================
// DELETE LISTING
// ========================

func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ========================
// LIST BY OWNER
// ========================

func (r *ListingRepo) ListByUser(ctx context.Context, userRef string) ([]models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE user_ref = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}

// ========================
// SEARCH
// ========================

// SearchParams mirrors the listing search query string. Offer, Parking and
// Furnished are tri-state: only a true filter narrows the result set; false
// or unset matches both values.
type SearchParams struct {
	SearchTerm string
	Offer      bool
	Parking    bool
	Furnished  bool
	Type       string // "sale", "rent", or "" / "all" for both
	Sort       string // "created_at" (default) or "regular_price"
	Order      string // "asc" or "desc" (default)
	Limit      int
	Offset     int
}

var searchSortColumns = map[string]string{
	"created_at":    "created_at",
	"createdAt":     "created_at",
	"regular_price": "regular_price",
	"regularPrice":  "regular_price",
}

// likeEscaper neutralizes LIKE metacharacters so a search term is always
// matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search filters, sorts and paginates listings. Filters combine with AND;
// the name match is a case-insensitive substring.
func (r *ListingRepo) Search(ctx context.Context, p SearchParams) ([]models.Listing, error) {
	where := []string{"name ILIKE '%' || $1 || '%'"}
	args := []any{likeEscaper.Replace(p.SearchTerm)}

	if p.Offer {
		where = append(where, "offer = TRUE")
	}
	if p.Parking {
		where = append(where, "parking = TRUE")
	}
	if p.Furnished {
		where = append(where, "furnished = TRUE")
	}
	if p.Type == models.ListingTypeSale || p.Type == models.ListingTypeRent {
		args = append(args, p.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	sortCol, ok := searchSortColumns[p.Sort]
	if !ok {
		sortCol = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(p.Order, "asc") {
		order = "ASC"
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 9
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		listingColumns, strings.Join(where, " AND "), sortCol, order, len(args)-1, len(args),
	)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}

// ========================
// COUNTS
// ========================

func (r *ListingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

func (r *ListingRepo) CountByType(ctx context.Context, listingType string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE type = $1`, listingType).Scan(&n)
	return n, err
}

func collectListings(rows *sql.Rows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}
