package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"creatorhub/internal/model"
)

var ErrUserNotFound = errors.New("user_not_found")

type UserRepository interface {
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

// Counters are nullable in the users table; NULL reads as zero.
const usageColumns = `COALESCE(subscription_plan, 'free'), subscription_end_date,
	COALESCE(content_ideas_used_this_month, 0), COALESCE(video_repurposing_used_this_month, 0),
	COALESCE(copyright_alerts_used_this_month, 0), last_usage_reset`

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, email, COALESCE(primary_niche, ''), COALESCE(target_audience, ''), created_at, ` +
		usageColumns + ` FROM users WHERE id = $1`

	var u model.User
	dest := []any{&u.UserID, &u.Email, &u.PrimaryNiche, &u.TargetAudience, &u.CreatedAt}
	scan := newUsageScan()
	if err := r.db.QueryRowContext(ctx, query, id).Scan(append(dest, scan.dest()...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading user %s: %w", id, err)
	}
	u.Usage = scan.state()
	return &u, nil
}

// usageScan holds nullable columns until they are folded into a UsageState.
type usageScan struct {
	plan      sql.NullString
	endDate   sql.NullTime
	ideas     sql.NullInt64
	videos    sql.NullInt64
	copyright sql.NullInt64
	lastReset sql.NullTime
}

func newUsageScan() *usageScan {
	return &usageScan{}
}

func (s *usageScan) dest() []any {
	return []any{&s.plan, &s.endDate, &s.ideas, &s.videos, &s.copyright, &s.lastReset}
}

func (s *usageScan) state() model.UsageState {
	st := model.UsageState{
		Plan:                model.ParsePlan(s.plan.String),
		IdeasUsed:           int(s.ideas.Int64),
		VideoRepurposesUsed: int(s.videos.Int64),
		CopyrightAlertsUsed: int(s.copyright.Int64),
	}
	if s.endDate.Valid {
		t := s.endDate.Time
		st.SubscriptionEndDate = &t
	}
	if s.lastReset.Valid {
		t := s.lastReset.Time
		st.LastUsageResetAt = &t
	}
	return st
}
