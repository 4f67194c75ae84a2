package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/hvichare/go-estate/internal/metrics"
	"github.com/hvichare/go-estate/internal/models"
	"github.com/hvichare/go-estate/internal/repo"
	"github.com/robfig/cron/v3"
)

// Run starts a background refresher that recomputes the marketplace gauges
// (registered users, listings by type) on the given cron expression. It
// refreshes once immediately so the gauges are populated before the first
// tick. Returns the cron so the caller can Stop it on shutdown.
func Run(cronExpr string, users *repo.UserRepo, listings *repo.ListingRepo) (*cron.Cron, error) {
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if n, err := users.Count(ctx); err != nil {
			slog.Error("stats: count users", "error", err)
		} else {
			metrics.SetUsersTotal(n)
		}

		for _, listingType := range []string{models.ListingTypeSale, models.ListingTypeRent} {
			n, err := listings.CountByType(ctx, listingType)
			if err != nil {
				slog.Error("stats: count listings", "type", listingType, "error", err)
				continue
			}
			metrics.SetListingsTotal(listingType, n)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cronExpr, refresh); err != nil {
		return nil, err
	}

	refresh()
	c.Start()
	return c, nil
}
