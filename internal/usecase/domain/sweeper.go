package domain

import (
	"context"
	"fmt"
	"time"
)

// SweepExpiredPreviews deletes every preview past its expiry once.
func (u *Usecase) SweepExpiredPreviews(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	n, err := u.repo.DeleteExpiredPreviews(ctx, u.now())
	if err != nil {
		return 0, fmt.Errorf("sweep previews: %w", err)
	}
	if n > 0 {
		u.metrics.PreviewsSwept(n)
	}
	u.log.Infow("expired previews swept", "deleted", n)
	return n, nil
}

// RunSweeper sweeps expired previews every interval until ctx is done.
func (u *Usecase) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		u.log.Warnw("preview sweeper disabled", "interval", interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := u.SweepExpiredPreviews(ctx); err != nil {
				u.log.Errorw("preview sweep failed", "error", err)
			}
		}
	}
}
