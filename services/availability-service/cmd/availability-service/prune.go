package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/inbox"
)

func pruneInbox(ctx context.Context, repo *inbox.Repository, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := repo.Prune(ctx, retention)
		if err != nil {
			logger.Warn("inbox prune failed", "err", err)
			continue
		}
		if n > 0 {
			logger.Info("inbox pruned", "deleted", n)
		}
	}
}
