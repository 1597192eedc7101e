package model

import (
	"fmt"
	"time"
)

type ContentType string

const (
	ContentTypeIdea            ContentType = "idea"
	ContentTypeRepurposedVideo ContentType = "repurposed_video"
	ContentTypeBlogPost        ContentType = "blog_post"
	ContentTypeSocialPost      ContentType = "social_post"
	ContentTypeNewsletter      ContentType = "newsletter"
	ContentTypeScript          ContentType = "script"
)

func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(s); ct {
	case ContentTypeIdea, ContentTypeRepurposedVideo, ContentTypeBlogPost,
		ContentTypeSocialPost, ContentTypeNewsletter, ContentTypeScript:
		return ct, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// GeneratedContent is a persisted artifact owned by exactly one user.
type GeneratedContent struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	ContentType ContentType    `db:"content_type" json:"content_type"`
	Title       string         `db:"title" json:"title"`
	Body        string         `db:"content" json:"content"`
	Metadata    map[string]any `db:"metadata" json:"metadata"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Idea is one generated content idea as returned by the engine.
type Idea struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	EngagementScore int      `json:"engagement_score"`
	Hashtags        []string `json:"hashtags"`
	Fallback        bool     `json:"fallback,omitempty"`
}

// PlatformResult is the outcome of repurposing for a single platform. It is
// folded into the artifact metadata and never stored on its own.
type PlatformResult struct {
	Platform  string
	Content   string
	Succeeded bool
	// Err is set when Content is the fallback snippet.
	Err error
}
