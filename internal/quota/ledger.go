// Package quota decides whether a user may spend one more unit of a monthly
// allowance. It works on in-memory usage state only and never touches storage.
package quota

import (
	"errors"
	"time"

	"creatorhub/internal/model"
)

type Kind string

const (
	KindIdeaGeneration Kind = "idea_generation"
	KindVideoRepurpose Kind = "video_repurpose"
)

// ResetInterval is the age of the last reset after which counters start over.
const ResetInterval = 30 * 24 * time.Hour

type Reason string

const (
	ReasonLimitReached         Reason = "limit_reached"
	ReasonSubscriptionInactive Reason = "subscription_inactive"
)

var ErrUnknownKind = errors.New("unknown quota kind")

// Decision is the outcome of CheckAndPrepare.
type Decision struct {
	Allowed bool
	Reason  Reason
	Plan    model.SubscriptionPlan
	Limit   int
	Used    int
	// Reset reports whether the check zeroed the counters.
	Reset bool
}

// UpgradeRequired is true for every denial; waiting for the next cycle is the
// only alternative and the caller should not retry.
func (d Decision) UpgradeRequired() bool {
	return !d.Allowed
}

type Ledger struct {
	plans map[model.SubscriptionPlan]model.PlanQuota
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPlans replaces the default plan table.
func WithPlans(plans map[model.SubscriptionPlan]model.PlanQuota) Option {
	return func(l *Ledger) { l.plans = plans }
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		plans: model.DefaultPlanQuotas,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndPrepare applies the lazy monthly reset to state, then decides whether
// one more unit of kind is allowed. The reset is a mutation of state and must
// be persisted by whoever persists the increment.
func (l *Ledger) CheckAndPrepare(state *model.UsageState, kind Kind) (Decision, error) {
	limit, err := l.Limit(state.Plan, kind)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		Plan:  l.resolvePlan(state.Plan),
		Limit: limit,
		Reset: l.ResetIfDue(state),
	}
	d.Used = used(state, kind)

	if !l.IsActive(state) {
		d.Reason = ReasonSubscriptionInactive
		return d, nil
	}
	if limit == model.Unlimited || d.Used < limit {
		d.Allowed = true
		return d, nil
	}
	d.Reason = ReasonLimitReached
	return d, nil
}

// Increment records one unit of kind. Call it only after the work succeeded.
func (l *Ledger) Increment(state *model.UsageState, kind Kind) error {
	switch kind {
	case KindIdeaGeneration:
		state.IdeasUsed++
	case KindVideoRepurpose:
		state.VideoRepurposesUsed++
	default:
		return ErrUnknownKind
	}
	return nil
}

// ResetIfDue zeroes all counters when the last reset is missing or at least
// ResetInterval old.
func (l *Ledger) ResetIfDue(state *model.UsageState) bool {
	now := l.now().UTC()
	if state.LastUsageResetAt != nil && now.Sub(*state.LastUsageResetAt) < ResetInterval {
		return false
	}
	state.IdeasUsed = 0
	state.VideoRepurposesUsed = 0
	state.CopyrightAlertsUsed = 0
	state.LastUsageResetAt = &now
	return true
}

// IsActive reports whether the subscription currently grants any quota. Free
// never expires; paid plans need an end date that has not passed yet.
func (l *Ledger) IsActive(state *model.UsageState) bool {
	if l.resolvePlan(state.Plan) == model.PlanFree {
		return true
	}
	if state.SubscriptionEndDate == nil {
		return false
	}
	return !l.now().After(*state.SubscriptionEndDate)
}

// Limit returns the monthly limit of kind for plan, model.Unlimited for none.
func (l *Ledger) Limit(plan model.SubscriptionPlan, kind Kind) (int, error) {
	q := l.plans[l.resolvePlan(plan)]
	switch kind {
	case KindIdeaGeneration:
		return q.IdeasPerMonth, nil
	case KindVideoRepurpose:
		return q.VideoRepurposesPerMonth, nil
	default:
		return 0, ErrUnknownKind
	}
}

func (l *Ledger) resolvePlan(plan model.SubscriptionPlan) model.SubscriptionPlan {
	if _, ok := l.plans[plan]; ok {
		return plan
	}
	return model.PlanFree
}

func used(state *model.UsageState, kind Kind) int {
	if kind == KindVideoRepurpose {
		return state.VideoRepurposesUsed
	}
	return state.IdeasUsed
}
