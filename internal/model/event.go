package model

import (
	"encoding/json"
	"time"
)

const EventContentGenerated = "content.generated"

// ContentEvent is written to the outbox queue in the same transaction as the
// artifacts it describes.
type ContentEvent struct {
	Type        string      `json:"type"`
	TraceID     string      `json:"trace_id"`
	UserID      string      `json:"user_id"`
	ContentType ContentType `json:"content_type"`
	ContentIDs  []string    `json:"content_ids"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// DeadLetterEvent wraps an event the relay gave up on.
type DeadLetterEvent struct {
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}
