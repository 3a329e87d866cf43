package reservation

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner expires reservations that were never picked up. Expiry is a
// server-side, time-driven transition; clients only ever observe it.
type Cleaner struct {
	svc      Service
	repo     Repo
	log      *slog.Logger
	grace    time.Duration
	interval time.Duration
}

func NewCleaner(svc Service, repo Repo, log *slog.Logger, graceDays int, interval time.Duration) *Cleaner {
	return &Cleaner{
		svc:      svc,
		repo:     repo,
		log:      log,
		grace:    time.Duration(graceDays) * 24 * time.Hour,
		interval: interval,
	}
}

// Start runs the sweep on a ticker until ctx is cancelled.
func (c *Cleaner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep(ctx)
			}
		}
	}()
}

func (c *Cleaner) sweep(ctx context.Context) {
	deadline := time.Now().UTC().Add(-c.grace)
	ids, err := c.repo.ListExpirable(ctx, deadline, 100)
	if err != nil {
		c.log.Error("expiry sweep failed", "err", err)
		return
	}
	for _, id := range ids {
		if err := c.svc.Expire(ctx, id); err != nil {
			// a race with pickup/cancel shows up as an invalid transition;
			// that reservation no longer needs expiring
			if Code(err) == ErrInvalidTransition {
				continue
			}
			c.log.Error("expire reservation failed", "reservation_id", id, "err", err)
		}
	}
	if len(ids) > 0 {
		c.log.Info("expired stale reservations", "count", len(ids))
	}
}
