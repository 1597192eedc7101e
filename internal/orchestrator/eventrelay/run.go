// Package eventrelay forwards content events from the pgmq outbox to Pub/Sub.
package eventrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/pgmq"
	"creatorhub/internal/pubsub"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the relay needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

type Config struct {
	Queue           string
	DeadLetterQueue string
	Topic           string
	VisibilitySec   int
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

type Relay struct {
	queue     Queue
	publisher pubsub.Publisher
	cfg       Config
	logger    zerolog.Logger
}

func New(queue Queue, publisher pubsub.Publisher, cfg Config, logger zerolog.Logger) *Relay {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.PollMaxMsg <= 0 {
		cfg.PollMaxMsg = 1
	}
	if cfg.VisibilitySec <= 0 {
		cfg.VisibilitySec = 120
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		cfg.BackoffMax = cfg.BackoffInitial
	}
	return &Relay{
		queue:     queue,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("orchestrator", "EventRelay").Str("queue", cfg.Queue).Logger(),
	}
}

// Run polls until ctx is done. A message is deleted only after it was
// published or parked on the dead-letter queue.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().Str("topic", r.cfg.Topic).Msg("Starting event relay")
	for {
		if ctx.Err() != nil {
			r.logger.Info().Msg("Shutting down event relay")
			return nil
		}
		msgs, err := r.queue.ReadWithPoll(ctx, r.cfg.Queue, r.cfg.VisibilitySec, r.cfg.PollTimeoutSec, r.cfg.PollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Error().Err(err).Msg("Error reading event queue")
			sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			r.handle(ctx, msg)
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg *pgmq.Message) {
	log := r.logger.With().Int64("msg_id", msg.ID).Int("read_ct", msg.ReadCt).Logger()

	var event model.ContentEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().Err(err).Msg("Malformed event payload, deleting message")
		r.delete(ctx, log, msg.ID)
		return
	}
	attrs := map[string]string{
		"type":         event.Type,
		"trace_id":     event.TraceID,
		"user_id":      event.UserID,
		"content_type": string(event.ContentType),
	}

	backoff := r.cfg.BackoffInitial
	var pubErr error
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		var id string
		id, pubErr = r.publisher.Publish(ctx, r.cfg.Topic, msg.Data, attrs)
		if pubErr == nil {
			log.Info().Str("trace_id", event.TraceID).Str("pubsub_id", id).Msg("Event published")
			r.delete(ctx, log, msg.ID)
			return
		}
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(pubErr).Int("attempt", attempt).Msg("Publish failed")
		if attempt == r.cfg.MaxRetries {
			break
		}
		if !sleep(ctx, backoff) {
			return
		}
		backoff = min(backoff*2, r.cfg.BackoffMax)
	}

	if err := r.deadLetter(ctx, msg, pubErr); err != nil {
		log.Error().Err(err).Msg("Failed to dead-letter event; it will be redelivered")
		return
	}
	log.Error().Err(pubErr).Str("dlq", r.cfg.DeadLetterQueue).Msg("Event moved to dead-letter queue")
	r.delete(ctx, log, msg.ID)
}

func (r *Relay) deadLetter(ctx context.Context, msg *pgmq.Message, cause error) error {
	if r.cfg.DeadLetterQueue == "" {
		return fmt.Errorf("no dead-letter queue configured")
	}
	payload, err := json.Marshal(model.DeadLetterEvent{
		Payload:  msg.Data,
		Error:    cause.Error(),
		Attempts: r.cfg.MaxRetries,
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling dead-letter event: %w", err)
	}
	return r.queue.Send(ctx, r.cfg.DeadLetterQueue, payload)
}

func (r *Relay) delete(ctx context.Context, log zerolog.Logger, id int64) {
	if err := r.queue.Delete(ctx, r.cfg.Queue, []int64{id}); err != nil {
		log.Error().Err(err).Msg("Error deleting event message")
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
