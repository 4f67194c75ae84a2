package listings

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hvichare/go-estate/cmd/cli/config"
	"github.com/hvichare/go-estate/cmd/cli/output"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// CLI Command Init
// ==========================
func InitListings(rootCmd *cobra.Command) {
	listingsCmd := &cobra.Command{
		Use:   "listings",
		Short: "Browse and manage listings",
	}

	listingsCmd.AddCommand(
		searchCmd(),
		getCmd(),
		mineCmd(),
		deleteCmd(),
	)

	rootCmd.AddCommand(listingsCmd)
}

// ==========================
// SEARCH
// ==========================
func searchCmd() *cobra.Command {
	var searchTerm, listingType, sort, order string
	var offer, parking, furnished bool
	var limit, startIndex int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("searchTerm", searchTerm)
			if listingType != "" {
				q.Set("type", listingType)
			}
			if offer {
				q.Set("offer", "true")
			}
			if parking {
				q.Set("parking", "true")
			}
			if furnished {
				q.Set("furnished", "true")
			}
			if sort != "" {
				q.Set("sort", sort)
			}
			if order != "" {
				q.Set("order", order)
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("startIndex", strconv.Itoa(startIndex))

			resp, err := http.Get(config.APIURL() + "/api/listing/get?" + q.Encode())
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: status %d", resp.StatusCode)
			}

			var listings []models.Listing
			if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
				return err
			}

			renderListings(listings)
			return nil
		},
	}

	cmd.Flags().StringVar(&searchTerm, "term", "", "search term (name substring)")
	cmd.Flags().StringVar(&listingType, "type", "", "sale or rent (default both)")
	cmd.Flags().BoolVar(&offer, "offer", false, "only listings with an offer")
	cmd.Flags().BoolVar(&parking, "parking", false, "only listings with parking")
	cmd.Flags().BoolVar(&furnished, "furnished", false, "only furnished listings")
	cmd.Flags().StringVar(&sort, "sort", "", "sort field: created_at or regular_price")
	cmd.Flags().StringVar(&order, "order", "", "asc or desc")
	cmd.Flags().IntVar(&limit, "limit", 9, "max results")
	cmd.Flags().IntVar(&startIndex, "start-index", 0, "pagination offset")

	return cmd
}

// ==========================
// GET
// ==========================
func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(config.APIURL() + "/api/listing/get/" + url.PathEscape(args[0]))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: status %d", resp.StatusCode)
			}

			var out any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
}

// ==========================
// MINE
// ==========================
func mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := config.LoadSession()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, err := http.NewRequest("GET", config.APIURL()+"/api/user/listings/"+url.PathEscape(session.UserID), nil)
			if err != nil {
				return err
			}
			req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: session.Token})

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: status %d", resp.StatusCode)
			}

			var listings []models.Listing
			if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
				return err
			}

			renderListings(listings)
			return nil
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := config.LoadSession()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, err := http.NewRequest("DELETE", config.APIURL()+"/api/listing/delete/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: session.Token})

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: status %d", resp.StatusCode)
			}

			fmt.Println("Listing deleted.")
			return nil
		},
	}
}

func renderListings(listings []models.Listing) {
	headers := []string{"ID", "Name", "Type", "Price", "Beds", "Baths", "Address"}
	rows := make([][]interface{}, 0, len(listings))
	for _, l := range listings {
		price := l.RegularPrice
		if l.Offer && l.DiscountPrice > 0 {
			price = l.DiscountPrice
		}
		rows = append(rows, []interface{}{
			l.ID, l.Name, l.Type, price, l.Bedrooms, l.Bathrooms, l.Address,
		})
	}
	output.RenderTable(headers, rows)
}
