// Package genai wraps the external generative and transcription engine behind
// a small capability set. Every call is a single request/response; callers own
// any retry policy.
package genai

import (
	"context"
	"errors"

	"creatorhub/internal/model"
)

var (
	ErrUnsupportedMedia   = errors.New("unsupported media format")
	ErrMediaTooSmall      = errors.New("media file too small to contain audio")
	ErrTranscriptTooShort = errors.New("transcript too short")
	ErrEmptyResponse      = errors.New("empty response from engine")
)

// MaxIdeas is the upper bound on ideas per request.
const MaxIdeas = 10

type IdeaRequest struct {
	Topic    string
	Niche    string
	Audience string
	Count    int
	Platform string
}

// IdeaResult holds generated ideas. Fallback is set when the engine output was
// unusable and the whole deterministic set was substituted; ideas padded onto a
// short engine list carry their own Fallback flag.
type IdeaResult struct {
	Ideas    []model.Idea
	Fallback bool
}

type RepurposeRequest struct {
	Transcript  string
	Title       string
	Description string
	Platform    string
	Tone        string
}

type Engine interface {
	// GenerateIdeas degrades to a fallback set on any engine failure. It only
	// returns an error when ctx is done.
	GenerateIdeas(ctx context.Context, req IdeaRequest) (IdeaResult, error)
	Transcribe(ctx context.Context, media []byte, filename string) (string, error)
	RepurposeForPlatform(ctx context.Context, req RepurposeRequest) (string, error)
}

// IsPermanent reports errors that will not change on a second attempt.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnsupportedMedia) ||
		errors.Is(err, ErrMediaTooSmall) ||
		errors.Is(err, context.Canceled)
}
