package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/studyflow/planner-engine/internal/storage"
)

// Cleaner handles periodic cleanup of expired study plans
type Cleaner struct {
	repo     storage.Repository
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(repo storage.Repository, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Cleaner{
		repo:     repo,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup finds and removes expired plans
func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	stale, err := c.repo.GetStalePlans(ctx)
	if err != nil {
		slog.Error("failed to get expired plans", "error", err)
		return
	}

	if len(stale) == 0 {
		slog.Debug("no expired plans found")
		return
	}

	slog.Info("found expired plans", "count", len(stale))

	for _, plan := range stale {
		if err := c.repo.DeletePlan(ctx, plan.ID); err != nil {
			slog.Error("failed to delete expired plan",
				"error", err,
				"id", plan.ID,
			)
			continue
		}

		slog.Info("expired plan deleted",
			"id", plan.ID,
			"user_id", plan.UserID,
			"expired_at", plan.ExpiresAt,
		)
	}
}
