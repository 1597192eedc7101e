// Package usagereset zeroes monthly counters for users whose cycle elapsed.
// Requests reset lazily as well, so the job only keeps idle accounts tidy.
package usagereset

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Resetter is implemented by repository.UsageRepository.
type Resetter interface {
	ResetMonthlyUsage(ctx context.Context, now time.Time) (int64, error)
}

// Run resets once immediately and then on every tick until ctx is done.
func Run(ctx context.Context, logger zerolog.Logger, repo Resetter, interval time.Duration) error {
	log := logger.With().Str("orchestrator", "UsageReset").Logger()
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	log.Info().Dur("interval", interval).Msg("Starting usage reset job")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		runOnce(ctx, log, repo)
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down usage reset job")
			return nil
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, log zerolog.Logger, repo Resetter) {
	start := time.Now()
	n, err := repo.ResetMonthlyUsage(ctx, start.UTC())
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Usage reset failed")
		}
		return
	}
	log.Info().Int64("users", n).Dur("duration", time.Since(start)).Msg("Usage counters reset")
}
