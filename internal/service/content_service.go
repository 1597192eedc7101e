package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"creatorhub/internal/genai"
	"creatorhub/internal/metrics"
	"creatorhub/internal/model"
	"creatorhub/internal/quota"
	"creatorhub/internal/repository"
	"creatorhub/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	DefaultTone         = "professional"
)

type IdeasInput struct {
	Topic    string
	Niche    string
	Audience string
	Count    int
	Platform string
}

type GeneratedIdea struct {
	ID                string
	Title             string
	Description       string
	EngagementScore   int
	Hashtags          []string
	PlatformOptimized string
	Fallback          bool
}

type RepurposeInput struct {
	Media           []byte
	Filename        string
	ContentType     string
	Title           string
	Description     string
	TargetPlatforms string
	Tone            string
}

type RepurposeOutput struct {
	ID                 string
	TraceID            string
	OriginalTitle      string
	Transcript         string
	RepurposedContent  map[string]string
	PlatformsGenerated []string
	FallbackPlatforms  []string
}

type HistoryQuery struct {
	ContentType string
	Limit       int
	Offset      int
}

// ContentService runs the generation pipelines and manages a user's artifacts.
type ContentService interface {
	GenerateIdeas(ctx context.Context, userID string, in IdeasInput) ([]GeneratedIdea, error)
	RepurposeVideo(ctx context.Context, userID string, in RepurposeInput) (*RepurposeOutput, error)
	History(ctx context.Context, userID string, q HistoryQuery) ([]*model.GeneratedContent, error)
	Delete(ctx context.Context, userID, contentID string) error
}

type ContentServiceConfig struct {
	TranscriptionRetry RetryPolicy
	FanoutConcurrency  int
	MediaMinBytes      int64
}

type contentService struct {
	userRepo    repository.UserRepository
	contentRepo repository.ContentRepository
	recorder    repository.ArtifactRecorder
	ledger      *quota.Ledger
	engine      genai.Engine
	fanout      *FanoutCoordinator
	media       storage.MediaStore
	metrics     metrics.Recorder
	cfg         ContentServiceConfig
	logger      zerolog.Logger
}

func NewContentService(
	userRepo repository.UserRepository,
	contentRepo repository.ContentRepository,
	recorder repository.ArtifactRecorder,
	ledger *quota.Ledger,
	engine genai.Engine,
	media storage.MediaStore,
	m metrics.Recorder,
	cfg ContentServiceConfig,
	logger zerolog.Logger,
) ContentService {
	if m == nil {
		m = metrics.Noop{}
	}
	if media == nil {
		media = storage.NoopMediaStore{}
	}
	if cfg.TranscriptionRetry.MaxAttempts <= 0 {
		cfg.TranscriptionRetry = TranscriptionRetryPolicy()
	}
	if cfg.MediaMinBytes <= 0 {
		cfg.MediaMinBytes = genai.DefaultMinMediaBytes
	}
	return &contentService{
		userRepo:    userRepo,
		contentRepo: contentRepo,
		recorder:    recorder,
		ledger:      ledger,
		engine:      engine,
		fanout:      NewFanoutCoordinator(engine, cfg.FanoutConcurrency, m, logger),
		media:       media,
		metrics:     m,
		cfg:         cfg,
		logger:      logger.With().Str("service", "ContentService").Logger(),
	}
}

func (s *contentService) GenerateIdeas(ctx context.Context, userID string, in IdeasInput) (ideas []GeneratedIdea, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordPipeline("ideas", outcome(err), time.Since(start)) }()

	in.Topic = strings.TrimSpace(in.Topic)
	if in.Topic == "" {
		return nil, validationErrorf("topic is required")
	}
	if in.Count < 1 || in.Count > genai.MaxIdeas {
		return nil, validationErrorf("count must be between 1 and %d", genai.MaxIdeas)
	}

	user, err := s.checkQuota(ctx, userID, quota.KindIdeaGeneration)
	if err != nil {
		return nil, err
	}

	traceID := "ideas-" + uuid.NewString()
	log := s.logger.With().Str("trace_id", traceID).Str("user_id", userID).Logger()

	niche := firstNonEmpty(in.Niche, user.PrimaryNiche)
	audience := firstNonEmpty(in.Audience, user.TargetAudience)
	log.Info().Str("topic", in.Topic).Str("niche", niche).Int("count", in.Count).Msg("Generating content ideas")

	res, err := s.engine.GenerateIdeas(ctx, genai.IdeaRequest{
		Topic:    in.Topic,
		Niche:    niche,
		Audience: audience,
		Count:    in.Count,
		Platform: in.Platform,
	})
	if err != nil {
		return nil, err
	}
	if res.Fallback {
		log.Warn().Msg("Engine output unusable, recording fallback ideas")
	}
	if n := len(res.Ideas); n < in.Count {
		res.Ideas = append(res.Ideas, genai.FallbackIdeas(in.Topic, in.Count)[n:]...)
	} else if n > in.Count {
		res.Ideas = res.Ideas[:in.Count]
	}

	items := make([]*model.GeneratedContent, 0, len(res.Ideas))
	for _, idea := range res.Ideas {
		items = append(items, &model.GeneratedContent{
			ContentType: model.ContentTypeIdea,
			Title:       idea.Title,
			Body:        idea.Description,
			Metadata: map[string]any{
				"trace_id":             traceID,
				"topic":                in.Topic,
				"niche":                niche,
				"platform":             in.Platform,
				"engagement_potential": idea.EngagementScore,
				"hashtags":             idea.Hashtags,
				"fallback":             idea.Fallback,
			},
		})
	}

	if err := s.record(ctx, userID, quota.KindIdeaGeneration, traceID, items); err != nil {
		log.Error().Err(err).Msg("Failed to record ideas")
		return nil, err
	}

	ideas = make([]GeneratedIdea, 0, len(items))
	for i, item := range items {
		idea := res.Ideas[i]
		ideas = append(ideas, GeneratedIdea{
			ID:                item.ID,
			Title:             idea.Title,
			Description:       idea.Description,
			EngagementScore:   idea.EngagementScore,
			Hashtags:          idea.Hashtags,
			PlatformOptimized: in.Platform,
			Fallback:          idea.Fallback,
		})
	}
	log.Info().Int("ideas", len(ideas)).Msg("Content ideas generated")
	return ideas, nil
}

func (s *contentService) RepurposeVideo(ctx context.Context, userID string, in RepurposeInput) (out *RepurposeOutput, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordPipeline("repurpose", outcome(err), time.Since(start)) }()

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validationErrorf("title is required")
	}
	if err := genai.ValidateMedia(in.Filename, int64(len(in.Media)), s.cfg.MediaMinBytes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	platforms, err := ParsePlatforms(in.TargetPlatforms)
	if err != nil {
		return nil, err
	}
	tone := firstNonEmpty(strings.TrimSpace(in.Tone), DefaultTone)

	if _, err := s.checkQuota(ctx, userID, quota.KindVideoRepurpose); err != nil {
		return nil, err
	}

	traceID := "repurpose-" + uuid.NewString()
	log := s.logger.With().Str("trace_id", traceID).Str("user_id", userID).Logger()
	log.Info().Str("file", in.Filename).Strs("platforms", platforms).Msg("Starting video repurpose")

	sourceKey := s.archive(ctx, log, userID, traceID, in)
	recorded := false
	defer func() {
		if sourceKey != "" && !recorded {
			s.discard(log, sourceKey)
		}
	}()

	transcript, err := s.transcribe(ctx, log, in.Media, in.Filename)
	if err != nil {
		return nil, err
	}

	results, err := s.fanout.Repurpose(ctx, FanoutRequest{
		TraceID:     traceID,
		Transcript:  transcript,
		Title:       in.Title,
		Description: in.Description,
		Tone:        tone,
	}, platforms)
	if err != nil {
		return nil, err
	}

	repurposed := make(map[string]string, len(results))
	var fallbacks []string
	for _, r := range results {
		repurposed[r.Platform] = r.Content
		if !r.Succeeded {
			fallbacks = append(fallbacks, r.Platform)
		}
	}

	metadata := map[string]any{
		"trace_id":           traceID,
		"original_file":      in.Filename,
		"platforms":          platforms,
		"tone":               tone,
		"repurposed_content": repurposed,
		"fallback_platforms": fallbacks,
	}
	if sourceKey != "" {
		metadata["source_object"] = sourceKey
	}
	item := &model.GeneratedContent{
		ContentType: model.ContentTypeRepurposedVideo,
		Title:       in.Title,
		Body:        transcript,
		Metadata:    metadata,
	}
	if err := s.record(ctx, userID, quota.KindVideoRepurpose, traceID, []*model.GeneratedContent{item}); err != nil {
		log.Error().Err(err).Msg("Failed to record repurposed video")
		return nil, err
	}
	recorded = true

	log.Info().Str("content_id", item.ID).Int("fallbacks", len(fallbacks)).Msg("Video repurposed")
	return &RepurposeOutput{
		ID:                 item.ID,
		TraceID:            traceID,
		OriginalTitle:      in.Title,
		Transcript:         transcript,
		RepurposedContent:  repurposed,
		PlatformsGenerated: platforms,
		FallbackPlatforms:  fallbacks,
	}, nil
}

func (s *contentService) History(ctx context.Context, userID string, q HistoryQuery) ([]*model.GeneratedContent, error) {
	var ct *model.ContentType
	if q.ContentType != "" {
		parsed, err := model.ParseContentType(q.ContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		ct = &parsed
	}
	if q.Offset < 0 {
		return nil, validationErrorf("offset must not be negative")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	items, err := s.contentRepo.ListByUser(ctx, userID, ct, limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("fetching content history: %w", err)
	}
	return items, nil
}

func (s *contentService) Delete(ctx context.Context, userID, contentID string) error {
	if _, err := uuid.Parse(contentID); err != nil {
		return validationErrorf("invalid content id %q", contentID)
	}
	if err := s.contentRepo.DeleteForUser(ctx, contentID, userID); err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return ErrContentNotFound
		}
		return fmt.Errorf("deleting content: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("content_id", contentID).Msg("Content deleted")
	return nil
}

// checkQuota is the early gate on an unlocked snapshot. The recorder repeats
// the check under a row lock before charging.
func (s *contentService) checkQuota(ctx context.Context, userID string, kind quota.Kind) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	d, err := s.ledger.CheckAndPrepare(&user.Usage, kind)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuotaDecision(string(kind), string(d.Plan), d.Allowed)
	if !d.Allowed {
		s.logger.Info().Str("user_id", userID).Str("kind", string(kind)).Str("plan", string(d.Plan)).
			Str("reason", string(d.Reason)).Msg("Quota denied")
		return nil, newQuotaError(kind, d)
	}
	return user, nil
}

func (s *contentService) transcribe(ctx context.Context, log zerolog.Logger, media []byte, filename string) (string, error) {
	var transcript string
	retryable := func(err error) bool { return !genai.IsPermanent(err) }
	attempts, err := s.cfg.TranscriptionRetry.Do(ctx, retryable, func(ctx context.Context, attempt int) error {
		text, err := s.engine.Transcribe(ctx, media, filename)
		s.metrics.RecordTranscriptionAttempt(attempt, err)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Transcription attempt failed")
			return err
		}
		transcript = text
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, genai.ErrUnsupportedMedia) || errors.Is(err, genai.ErrMediaTooSmall) {
			return "", fmt.Errorf("%w: %w", ErrValidation, err)
		}
		log.Error().Err(err).Int("attempts", attempts).Msg("Transcription failed")
		return "", fmt.Errorf("%w after %d attempts: %w", ErrTranscriptionFailed, attempts, err)
	}
	log.Info().Int("attempts", attempts).Int("chars", len(transcript)).Msg("Transcription completed")
	return transcript, nil
}

func (s *contentService) record(ctx context.Context, userID string, kind quota.Kind, traceID string, items []*model.GeneratedContent) error {
	err := s.recorder.Record(ctx, repository.RecordRequest{
		UserID:  userID,
		Kind:    kind,
		TraceID: traceID,
		Items:   items,
	})
	if err == nil {
		return nil
	}
	var denied *repository.QuotaDeniedError
	if errors.As(err, &denied) {
		s.metrics.RecordQuotaDecision(string(kind), string(denied.Decision.Plan), false)
		return newQuotaError(kind, denied.Decision)
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// archive stores the source media. Failure only costs the archive copy.
func (s *contentService) archive(ctx context.Context, log zerolog.Logger, userID, traceID string, in RepurposeInput) string {
	if _, ok := s.media.(storage.NoopMediaStore); ok {
		return ""
	}
	key := storage.MediaKey(userID, traceID, in.Filename)
	if err := s.media.Put(ctx, key, in.Media, in.ContentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to archive source media")
		return ""
	}
	return key
}

func (s *contentService) discard(log zerolog.Logger, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.media.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned source media")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, ErrQuotaExceeded):
		return "denied"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrTranscriptionFailed):
		return "transcription_failed"
	case errors.Is(err, ErrPersistence):
		return "persistence_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
