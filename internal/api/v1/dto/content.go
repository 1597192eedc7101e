package dto

import "time"

// GenerateIdeasRequestDTO is the body of POST /content/generate-ideas
type GenerateIdeasRequestDTO struct {
	Topic    string `json:"topic" validate:"required,min=1,max=200"`
	Niche    string `json:"niche,omitempty" validate:"max=100"`
	Audience string `json:"audience,omitempty" validate:"max=200"`
	Count    *int   `json:"count,omitempty" validate:"omitempty,min=1,max=10"`
	Platform string `json:"platform,omitempty" validate:"max=50"`
}

type IdeaResponseDTO struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	EngagementScore   int      `json:"engagement_score"`
	Hashtags          []string `json:"hashtags"`
	PlatformOptimized string   `json:"platform_optimized"`
	Fallback          bool     `json:"fallback,omitempty"`
}

type GenerateIdeasResponseDTO struct {
	Ideas []IdeaResponseDTO `json:"ideas"`
	// Fallback is true when any idea is a generic stand-in for unusable engine output.
	Fallback bool `json:"fallback"`
}

// RepurposeVideoFormDTO holds the non-file fields of the multipart upload
type RepurposeVideoFormDTO struct {
	Title           string `validate:"required,max=200"`
	Description     string `validate:"max=5000"`
	TargetPlatforms string `validate:"required"`
	Tone            string `validate:"max=50"`
}

type RepurposeVideoResponseDTO struct {
	ID                 string            `json:"id"`
	OriginalTitle      string            `json:"original_title"`
	Transcript         string            `json:"transcript"`
	RepurposedContent  map[string]string `json:"repurposed_content"`
	PlatformsGenerated []string          `json:"platforms_generated"`
	FallbackPlatforms  []string          `json:"fallback_platforms,omitempty"`
}

type ContentHistoryItemDTO struct {
	ID          string         `json:"id"`
	ContentType string         `json:"content_type"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

type ContentHistoryResponseDTO struct {
	Items  []ContentHistoryItemDTO `json:"items"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// QuotaErrorDTO is the 403 body for a quota denial
type QuotaErrorDTO struct {
	Detail QuotaErrorDetailDTO `json:"detail"`
}

type QuotaErrorDetailDTO struct {
	Message         string `json:"message"`
	CurrentPlan     string `json:"current_plan"`
	UpgradeRequired bool   `json:"upgrade_required"`
}
