package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"creatorhub/internal/quota"
)

// UsageRepository holds bulk maintenance of the monthly counters.
type UsageRepository interface {
	// ResetMonthlyUsage zeroes the counters of every user whose last reset is
	// missing or at least one cycle old. Rows already reset are left alone, so
	// repeated runs are harmless.
	ResetMonthlyUsage(ctx context.Context, now time.Time) (int64, error)
}

type usageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) ResetMonthlyUsage(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE users
		SET content_ideas_used_this_month = 0,
		    video_repurposing_used_this_month = 0,
		    copyright_alerts_used_this_month = 0,
		    last_usage_reset = $1
		WHERE last_usage_reset IS NULL OR last_usage_reset <= $2
	`
	res, err := r.db.ExecContext(ctx, q, now, now.Add(-quota.ResetInterval))
	if err != nil {
		return 0, fmt.Errorf("resetting monthly usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resetting monthly usage: %w", err)
	}
	return n, nil
}
