package api

import (
	"context"
	"time"

	"github.com/JaimeStill/addrsplit/internal/submissions"
)

// startSweeper deletes expired submissions on an interval until shutdown.
// A non-positive interval disables the sweeper; reads still hide expired rows.
func startSweeper(runtime *Runtime, store *submissions.PostgresStore, interval time.Duration) {
	if interval <= 0 {
		return
	}
	logger := runtime.Logger.With("worker", "sweeper")

	runtime.Lifecycle.Background(func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.Sweep(ctx)
				if err != nil {
					logger.Error("sweep failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("expired submissions deleted", "count", n)
				}
			}
		}
	})
}
