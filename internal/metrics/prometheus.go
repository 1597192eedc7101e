package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements Recorder on client_golang collectors.
type Prometheus struct {
	quotaDecisions        *prometheus.CounterVec
	transcriptionAttempts *prometheus.CounterVec
	platformResults       *prometheus.CounterVec
	pipelineDuration      *prometheus.HistogramVec
	rateLimited           *prometheus.CounterVec
}

func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		quotaDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_decisions_total",
			Help:      "Quota checks by kind, plan and outcome.",
		}, []string{"kind", "plan", "allowed"}),

		transcriptionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_attempts_total",
			Help:      "Transcription attempts by attempt number and result.",
		}, []string{"attempt", "success"}),

		platformResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_repurpose_total",
			Help:      "Per-platform repurpose calls; success=false means fallback content was used.",
		}, []string{"platform", "success"}),

		pipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline latency by outcome.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"pipeline", "outcome"}),

		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limiter.",
		}, []string{"limiter"}),
	}
}

func (m *Prometheus) RecordQuotaDecision(kind, plan string, allowed bool) {
	m.quotaDecisions.WithLabelValues(kind, plan, strconv.FormatBool(allowed)).Inc()
}

func (m *Prometheus) RecordTranscriptionAttempt(attempt int, err error) {
	m.transcriptionAttempts.WithLabelValues(strconv.Itoa(attempt), strconv.FormatBool(err == nil)).Inc()
}

func (m *Prometheus) RecordPlatformResult(platform string, succeeded bool) {
	m.platformResults.WithLabelValues(platform, strconv.FormatBool(succeeded)).Inc()
}

func (m *Prometheus) RecordPipeline(pipeline, outcome string, duration time.Duration) {
	m.pipelineDuration.WithLabelValues(pipeline, outcome).Observe(duration.Seconds())
}

func (m *Prometheus) RecordRateLimited(limiter string) {
	m.rateLimited.WithLabelValues(limiter).Inc()
}
