package model

import "strings"

type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanPro        SubscriptionPlan = "pro"
	PlanAgency     SubscriptionPlan = "agency"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

// Unlimited marks a limit that is never reached.
const Unlimited = -1

// PlanQuota holds the monthly limits of one tier.
type PlanQuota struct {
	IdeasPerMonth           int
	VideoRepurposesPerMonth int
}

// PlanCapabilities are the non-quota features a tier unlocks.
type PlanCapabilities struct {
	AnalyticsHistoryDays int  `json:"analytics_history_days"`
	CopyrightMonitoring  bool `json:"copyright_monitoring"`
	PrioritySupport      bool `json:"priority_support"`
	CustomAITraining     bool `json:"custom_ai_training"`
}

// DefaultPlanQuotas is the process-wide plan table.
var DefaultPlanQuotas = map[SubscriptionPlan]PlanQuota{
	PlanFree:       {IdeasPerMonth: 10, VideoRepurposesPerMonth: 2},
	PlanPro:        {IdeasPerMonth: 1000, VideoRepurposesPerMonth: 200},
	PlanAgency:     {IdeasPerMonth: 5000, VideoRepurposesPerMonth: 1000},
	PlanEnterprise: {IdeasPerMonth: Unlimited, VideoRepurposesPerMonth: Unlimited},
}

// ParsePlan normalizes a stored plan name. Unknown names map to free.
func ParsePlan(s string) SubscriptionPlan {
	switch p := SubscriptionPlan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanFree, PlanPro, PlanAgency, PlanEnterprise:
		return p
	default:
		return PlanFree
	}
}

func (p SubscriptionPlan) Capabilities() PlanCapabilities {
	caps := PlanCapabilities{AnalyticsHistoryDays: Unlimited}
	switch p {
	case PlanFree:
		caps.AnalyticsHistoryDays = 7
	case PlanPro:
		caps.AnalyticsHistoryDays = 90
	}
	paid := p == PlanPro || p == PlanAgency || p == PlanEnterprise
	caps.CopyrightMonitoring = paid
	caps.PrioritySupport = paid
	caps.CustomAITraining = p == PlanEnterprise
	return caps
}

// Upper returns the plan name the way it is shown to users.
func (p SubscriptionPlan) Upper() string {
	return strings.ToUpper(string(p))
}
