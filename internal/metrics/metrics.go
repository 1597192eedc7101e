package metrics

import "time"

// Recorder tracks pipeline behavior.
type Recorder interface {
	RecordQuotaDecision(kind, plan string, allowed bool)
	RecordTranscriptionAttempt(attempt int, err error)
	RecordPlatformResult(platform string, succeeded bool)
	RecordPipeline(pipeline, outcome string, duration time.Duration)
	RecordRateLimited(limiter string)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordQuotaDecision(kind, plan string, allowed bool)             {}
func (Noop) RecordTranscriptionAttempt(attempt int, err error)               {}
func (Noop) RecordPlatformResult(platform string, succeeded bool)            {}
func (Noop) RecordPipeline(pipeline, outcome string, duration time.Duration) {}
func (Noop) RecordRateLimited(limiter string)                                {}
