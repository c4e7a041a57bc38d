// Package scheduler runs the background jobs: periodic transaction
// refresh across all bank links and expired-session cleanup.
package scheduler

import (
	"context"
	"time"

	"finlink-server/src/config"
	dbcache "finlink-server/src/db"
	db "finlink-server/src/db/sql"
	"finlink-server/src/logger"
	plaidsvc "finlink-server/src/plaid"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

func Start(cfg *config.Config, agg *plaidsvc.Aggregator, pool *pgxpool.Pool) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(cfg.SyncSchedule, func() {
		refreshTransactions(agg, pool)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if removed, err := db.DeleteExpiredSessions(ctx, pool); err != nil {
			logger.S.Errorf("Expired session cleanup failed: %v", err)
		} else if removed > 0 {
			logger.S.Infof("Removed %d expired sessions", removed)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	logger.S.Infof("Scheduler started - transaction sync on %q", cfg.SyncSchedule)
	return c, nil
}

// refreshTransactions walks every bank link once. A failing link is
// logged and skipped; the next scheduled run picks it up again.
func refreshTransactions(agg *plaidsvc.Aggregator, pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	links, err := db.GetAllBankLinks(ctx, pool)
	if err != nil {
		logger.S.Errorf("Scheduled sync: failed to list bank links: %v", err)
		return
	}

	var added int
	for _, bankLink := range links {
		resp, err := agg.SyncTransactions(ctx, bankLink.AccessToken, bankLink.SyncCursor)
		if err != nil {
			logger.S.Errorf("Scheduled sync failed for item %s: %v", bankLink.ItemID, err)
			continue
		}
		if err := db.SaveTransactions(ctx, pool, bankLink.ID, resp.GetAdded()); err != nil {
			logger.S.Errorf("Scheduled sync: failed to save transactions for item %s: %v", bankLink.ItemID, err)
			continue
		}
		if err := db.UpdateSyncCursor(ctx, pool, bankLink.ID, resp.GetNextCursor()); err != nil {
			logger.S.Errorf("Scheduled sync: failed to update cursor for item %s: %v", bankLink.ItemID, err)
			continue
		}
		if n := len(resp.GetAdded()); n > 0 {
			added += n
			dbcache.InvalidateUserViews(bankLink.UserID)
		}
	}

	logger.S.Infof("Scheduled sync complete - %d links, %d new transactions", len(links), added)
}
