package model

import "time"

// User is the account row as far as content generation is concerned.
type User struct {
	UserID         string    `db:"id" json:"user_id"`
	Email          string    `db:"email" json:"email"`
	PrimaryNiche   string    `db:"primary_niche" json:"primary_niche"`
	TargetAudience string    `db:"target_audience" json:"target_audience"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Usage          UsageState
}

// UsageState is the per-user monthly quota state. It carries no behavior;
// the quota package decides and mutates it.
type UsageState struct {
	Plan                SubscriptionPlan `db:"subscription_plan" json:"subscription_plan"`
	SubscriptionEndDate *time.Time       `db:"subscription_end_date" json:"subscription_end_date,omitempty"`
	IdeasUsed           int              `db:"content_ideas_used_this_month" json:"ideas_used"`
	VideoRepurposesUsed int              `db:"video_repurposing_used_this_month" json:"video_repurposes_used"`
	CopyrightAlertsUsed int              `db:"copyright_alerts_used_this_month" json:"copyright_alerts_used"`
	LastUsageResetAt    *time.Time       `db:"last_usage_reset" json:"last_usage_reset,omitempty"`
}
