package service

import (
	"context"
	"fmt"
	"strings"

	"creatorhub/internal/genai"
	"creatorhub/internal/metrics"
	"creatorhub/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FallbackMarker prefixes content substituted for a failed platform.
const FallbackMarker = "Fallback snippet: "

const (
	fallbackExcerptChars     = 120
	defaultFanoutConcurrency = 5
)

// FallbackSnippet is the deterministic stand-in for a failed platform.
func FallbackSnippet(transcript string) string {
	r := []rune(transcript)
	if len(r) > fallbackExcerptChars {
		r = r[:fallbackExcerptChars]
	}
	return FallbackMarker + string(r) + "..."
}

// ParsePlatforms splits a comma-separated list, lower-cases and de-duplicates
// it, keeping first-seen order.
func ParsePlatforms(raw string) ([]string, error) {
	seen := make(map[string]struct{})
	var platforms []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		platforms = append(platforms, p)
	}
	if len(platforms) == 0 {
		return nil, validationErrorf("at least one target platform is required")
	}
	return platforms, nil
}

type FanoutRequest struct {
	TraceID     string
	Transcript  string
	Title       string
	Description string
	Tone        string
}

// FanoutCoordinator repurposes one transcript for many platforms. A failing
// platform gets fallback content; it never fails its siblings or the request.
type FanoutCoordinator struct {
	engine  genai.Engine
	limit   int
	metrics metrics.Recorder
	logger  zerolog.Logger
}

func NewFanoutCoordinator(engine genai.Engine, limit int, m metrics.Recorder, logger zerolog.Logger) *FanoutCoordinator {
	if limit <= 0 {
		limit = defaultFanoutConcurrency
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &FanoutCoordinator{
		engine:  engine,
		limit:   limit,
		metrics: m,
		logger:  logger.With().Str("service", "FanoutCoordinator").Logger(),
	}
}

// Repurpose returns one result per platform in the order given. It only
// returns an error when ctx is done, and then it does not wait for calls still
// in flight.
func (f *FanoutCoordinator) Repurpose(ctx context.Context, req FanoutRequest, platforms []string) ([]model.PlatformResult, error) {
	results := make([]model.PlatformResult, len(platforms))
	if len(platforms) == 0 {
		return results, nil
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(min(f.limit, len(platforms)))
		for i, platform := range platforms {
			g.Go(func() error {
				results[i] = f.repurposeOne(ctx, req, platform)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *FanoutCoordinator) repurposeOne(ctx context.Context, req FanoutRequest, platform string) model.PlatformResult {
	if ctx.Err() != nil {
		return model.PlatformResult{Platform: platform, Content: FallbackSnippet(req.Transcript)}
	}
	content, err := f.engine.RepurposeForPlatform(ctx, genai.RepurposeRequest{
		Transcript:  req.Transcript,
		Title:       req.Title,
		Description: req.Description,
		Platform:    platform,
		Tone:        req.Tone,
	})
	f.metrics.RecordPlatformResult(platform, err == nil)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrPlatformRepurposeFailed, platform, err)
		f.logger.Error().Err(err).
			Str("trace_id", req.TraceID).
			Str("platform", platform).
			Msg("Repurposing failed, using fallback snippet")
		return model.PlatformResult{Platform: platform, Content: FallbackSnippet(req.Transcript), Err: err}
	}
	f.logger.Debug().Str("trace_id", req.TraceID).Str("platform", platform).Msg("Repurposing succeeded")
	return model.PlatformResult{Platform: platform, Content: content, Succeeded: true}
}
