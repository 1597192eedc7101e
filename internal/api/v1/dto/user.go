package dto

import "time"

type KindUsageDTO struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// UsageResponseDTO is returned by GET /users/me/usage. A limit or remaining
// of -1 means unlimited.
type UsageResponseDTO struct {
	Plan               string          `json:"plan"`
	SubscriptionActive bool            `json:"subscription_active"`
	ContentIdeas       KindUsageDTO    `json:"content_ideas"`
	VideoRepurposing   KindUsageDTO    `json:"video_repurposing"`
	LastResetAt        *time.Time      `json:"last_reset_at,omitempty"`
	Capabilities       CapabilitiesDTO `json:"capabilities"`
}

type CapabilitiesDTO struct {
	AnalyticsHistoryDays int  `json:"analytics_history_days"`
	CopyrightMonitoring  bool `json:"copyright_monitoring"`
	PrioritySupport      bool `json:"priority_support"`
	CustomAITraining     bool `json:"custom_ai_training"`
}
