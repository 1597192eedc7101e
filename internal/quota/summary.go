package quota

import (
	"time"

	"creatorhub/internal/model"
)

type KindUsage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// Summary is a read-only view of a user's quota position.
type Summary struct {
	Plan           model.SubscriptionPlan `json:"plan"`
	Active         bool                   `json:"active"`
	Ideas          KindUsage              `json:"content_ideas"`
	VideoRepurpose KindUsage              `json:"video_repurposing"`
	LastResetAt    *time.Time             `json:"last_reset_at,omitempty"`
	Capabilities   model.PlanCapabilities `json:"capabilities"`
}

// Summarize reports usage as the next check would see it. The lazy reset is
// applied to a copy; state is left untouched.
func (l *Ledger) Summarize(state model.UsageState) Summary {
	l.ResetIfDue(&state)
	plan := l.resolvePlan(state.Plan)
	return Summary{
		Plan:           plan,
		Active:         l.IsActive(&state),
		Ideas:          l.kindUsage(plan, KindIdeaGeneration, state.IdeasUsed),
		VideoRepurpose: l.kindUsage(plan, KindVideoRepurpose, state.VideoRepurposesUsed),
		LastResetAt:    state.LastUsageResetAt,
		Capabilities:   plan.Capabilities(),
	}
}

func (l *Ledger) kindUsage(plan model.SubscriptionPlan, kind Kind, used int) KindUsage {
	limit, _ := l.Limit(plan, kind)
	if limit == model.Unlimited {
		return KindUsage{Used: used, Limit: limit, Remaining: model.Unlimited}
	}
	return KindUsage{Used: used, Limit: limit, Remaining: max(limit-used, 0)}
}
