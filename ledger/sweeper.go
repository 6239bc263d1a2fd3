package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blogkit/session-server/internal/metrics"
)

// Sweepable is a backend whose expired records need periodic eviction.
// The Redis backend is not Sweepable: its TTLs evict natively.
type Sweepable interface {
	Sweep(ctx context.Context) (int64, error)
}

// Sweep on InMemory adapts Cleanup for the background sweeper.
func (l *InMemory) Sweep(_ context.Context) (int64, error) {
	return int64(l.Cleanup()), nil
}

// RunSweeper evicts expired records on a ticker until ctx is cancelled. It
// runs on its own goroutine and never blocks foreground Revoke/IsRevoked
// calls.
func RunSweeper(ctx context.Context, s Sweepable, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("revocation sweep failed")
				continue
			}
			if removed > 0 {
				metrics.SweptRecords.Add(float64(removed))
				log.Debug().Int64("removed", removed).Msg("revocation sweep")
			}
		}
	}
}
