package service

import (
	"context"
	"time"
)

// RetryPolicy is a fixed-backoff, bounded-attempt policy.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// TranscriptionRetryPolicy is two attempts two seconds apart.
func TranscriptionRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Backoff: 2 * time.Second}
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. It returns the number of attempts made and the last error.
// The wait between attempts ends early when ctx is done.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) (int, error) {
	attempts := max(p.MaxAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		if retryable != nil && !retryable(err) {
			return attempt, err
		}
		if attempt == attempts {
			return attempt, err
		}
		if p.Backoff > 0 {
			timer := time.NewTimer(p.Backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return attempt, ctx.Err()
			}
		}
	}
	return attempts, err
}
