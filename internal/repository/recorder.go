package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/pgmq"
	"creatorhub/internal/quota"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrQuotaDenied is returned when the locked re-check refuses the increment.
var ErrQuotaDenied = errors.New("quota_denied")

// QuotaDeniedError carries the decision taken under the row lock.
type QuotaDeniedError struct {
	Decision quota.Decision
}

func (e *QuotaDeniedError) Error() string {
	return fmt.Sprintf("quota denied for plan %s: %s", e.Decision.Plan, e.Decision.Reason)
}

func (e *QuotaDeniedError) Is(target error) bool {
	return target == ErrQuotaDenied
}

// RecordRequest is one unit of work: every item is inserted and the quota of
// Kind is charged exactly once.
type RecordRequest struct {
	UserID  string
	Kind    quota.Kind
	TraceID string
	Items   []*model.GeneratedContent
}

// ArtifactRecorder persists generated content together with the quota
// increment.
type ArtifactRecorder interface {
	// Record fills in ID, UserID and CreatedAt on each item. On any error
	// nothing is persisted.
	Record(ctx context.Context, req RecordRequest) error
}

type artifactRecorder struct {
	db         *sql.DB
	ledger     *quota.Ledger
	eventQueue string
	logger     zerolog.Logger
}

// NewArtifactRecorder builds a recorder. When eventQueue is set, a
// content.generated event is enqueued in the same transaction.
func NewArtifactRecorder(db *sql.DB, ledger *quota.Ledger, eventQueue string, logger zerolog.Logger) ArtifactRecorder {
	return &artifactRecorder{
		db:         db,
		ledger:     ledger,
		eventQueue: eventQueue,
		logger:     logger.With().Str("repository", "ArtifactRecorder").Logger(),
	}
}

func (r *artifactRecorder) Record(ctx context.Context, req RecordRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("nothing to record for user %s", req.UserID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction for user %s: %w", req.UserID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// The row lock serializes concurrent requests of the same user.
	scan := newUsageScan()
	lockQ := `SELECT ` + usageColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockQ, req.UserID).Scan(scan.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("locking usage row for user %s: %w", req.UserID, err)
	}
	state := scan.state()

	decision, err := r.ledger.CheckAndPrepare(&state, req.Kind)
	if err != nil {
		return fmt.Errorf("checking quota for user %s: %w", req.UserID, err)
	}
	if !decision.Allowed {
		return &QuotaDeniedError{Decision: decision}
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if err := r.insert(ctx, tx, req.UserID, item); err != nil {
			return err
		}
		ids = append(ids, item.ID)
	}

	if err := r.ledger.Increment(&state, req.Kind); err != nil {
		return fmt.Errorf("incrementing quota for user %s: %w", req.UserID, err)
	}
	const updateQ = `
		UPDATE users
		SET content_ideas_used_this_month = $2,
		    video_repurposing_used_this_month = $3,
		    copyright_alerts_used_this_month = $4,
		    last_usage_reset = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, updateQ, req.UserID,
		state.IdeasUsed, state.VideoRepurposesUsed, state.CopyrightAlertsUsed, state.LastUsageResetAt); err != nil {
		return fmt.Errorf("updating usage for user %s: %w", req.UserID, err)
	}

	if r.eventQueue != "" {
		event := model.ContentEvent{
			Type:        model.EventContentGenerated,
			TraceID:     req.TraceID,
			UserID:      req.UserID,
			ContentType: req.Items[0].ContentType,
			ContentIDs:  ids,
			OccurredAt:  time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshaling content event: %w", err)
		}
		if err := pgmq.SendWith(ctx, tx, r.eventQueue, payload); err != nil {
			return fmt.Errorf("enqueuing content event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing content for user %s: %w", req.UserID, err)
	}
	r.logger.Info().
		Str("trace_id", req.TraceID).
		Str("user_id", req.UserID).
		Str("kind", string(req.Kind)).
		Int("items", len(ids)).
		Bool("reset", decision.Reset).
		Msg("Recorded generated content")
	return nil
}

func (r *artifactRecorder) insert(ctx context.Context, tx *sql.Tx, userID string, item *model.GeneratedContent) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.UserID = userID
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	meta, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata for content %s: %w", item.ID, err)
	}
	const insertQ = `
		INSERT INTO generated_content (id, user_id, content_type, title, content, metadata)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING created_at
	`
	if err := tx.QueryRowContext(ctx, insertQ, item.ID, userID, string(item.ContentType), item.Title, item.Body, string(meta)).
		Scan(&item.CreatedAt); err != nil {
		return fmt.Errorf("inserting content %s: %w", item.ID, err)
	}
	return nil
}
