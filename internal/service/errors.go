package service

import (
	"errors"
	"fmt"

	"creatorhub/internal/model"
	"creatorhub/internal/quota"
)

var (
	ErrQuotaExceeded           = errors.New("quota_exceeded")
	ErrValidation              = errors.New("validation_error")
	ErrTranscriptionFailed     = errors.New("transcription_failed")
	ErrPlatformRepurposeFailed = errors.New("platform_repurpose_failed")
	ErrPersistence             = errors.New("persistence_failed")
	ErrContentNotFound         = errors.New("content_not_found")
	ErrUserNotFound            = errors.New("user_not_found")
)

// QuotaError is a denial with enough context for the caller to suggest an
// upgrade. It matches ErrQuotaExceeded.
type QuotaError struct {
	Kind   quota.Kind
	Plan   model.SubscriptionPlan
	Reason quota.Reason
	Used   int
	Limit  int
}

func newQuotaError(kind quota.Kind, d quota.Decision) *QuotaError {
	return &QuotaError{Kind: kind, Plan: d.Plan, Reason: d.Reason, Used: d.Used, Limit: d.Limit}
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrQuotaExceeded, e.Message())
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// UpgradeRequired is always true; a denial is never resolved by retrying.
func (e *QuotaError) UpgradeRequired() bool {
	return true
}

func (e *QuotaError) Message() string {
	if e.Reason == quota.ReasonSubscriptionInactive {
		return "Subscription is not active"
	}
	if e.Kind == quota.KindVideoRepurpose {
		return "Monthly video repurposing limit reached"
	}
	return "Monthly content idea limit reached"
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
