package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"creatorhub/internal/model"

	"github.com/rs/zerolog"
)

var ErrContentNotFound = errors.New("content_not_found")

type ContentRepository interface {
	// ListByUser returns the user's artifacts newest first. A nil contentType
	// matches every type.
	ListByUser(ctx context.Context, userID string, contentType *model.ContentType, limit, offset int) ([]*model.GeneratedContent, error)
	// DeleteForUser removes one artifact owned by userID.
	DeleteForUser(ctx context.Context, id, userID string) error
}

type contentRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewContentRepo(db *sql.DB, logger zerolog.Logger) ContentRepository {
	return &contentRepo{
		db:     db,
		logger: logger.With().Str("repository", "ContentRepository").Logger(),
	}
}

func (r *contentRepo) ListByUser(ctx context.Context, userID string, contentType *model.ContentType, limit, offset int) ([]*model.GeneratedContent, error) {
	query := `SELECT id, user_id, content_type, title, content, COALESCE(metadata, '{}'::jsonb), created_at
		FROM generated_content
		WHERE user_id = $1`
	args := []any{userID}
	if contentType != nil {
		query += ` AND content_type = $2`
		args = append(args, string(*contentType))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing content for user %s: %w", userID, err)
	}
	defer rows.Close()

	var items []*model.GeneratedContent
	for rows.Next() {
		var (
			c    model.GeneratedContent
			ct   string
			meta []byte
		)
		if err := rows.Scan(&c.ID, &c.UserID, &ct, &c.Title, &c.Body, &meta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}
		c.ContentType = model.ContentType(ct)
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			r.logger.Warn().Err(err).Str("content_id", c.ID).Msg("Unreadable content metadata")
			c.Metadata = map[string]any{}
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content rows: %w", err)
	}
	return items, nil
}

func (r *contentRepo) DeleteForUser(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM generated_content WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting content %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting content %s: %w", id, err)
	}
	if n == 0 {
		return ErrContentNotFound
	}
	return nil
}
