package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"production"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Generative engine settings
	EngineBaseURL            string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	EngineAPIKey             string `envconfig:"OPENAI_API_KEY"`
	EngineAPIKeySecret       string `envconfig:"OPENAI_API_KEY_SECRET"`
	EngineModel              string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	EngineMaxTokens          int    `envconfig:"OPENAI_MAX_TOKENS" default:"2000"`
	EngineTranscriptionModel string `envconfig:"OPENAI_TRANSCRIPTION_MODEL" default:"whisper-1"`
	EngineTimeoutSec         int    `envconfig:"OPENAI_TIMEOUT_SEC" default:"120"`
	EngineValidateKey        bool   `envconfig:"ENGINE_VALIDATE_KEY" default:"false"`

	// Pipeline settings
	TranscribeMaxAttempts int   `envconfig:"TRANSCRIBE_MAX_ATTEMPTS" default:"2"`
	TranscribeBackoffSec  int   `envconfig:"TRANSCRIBE_BACKOFF_SEC" default:"2"`
	FanoutConcurrency     int   `envconfig:"FANOUT_CONCURRENCY" default:"5"`
	MediaMinBytes         int64 `envconfig:"MEDIA_MIN_BYTES" default:"51200"`
	MaxUploadMB           int64 `envconfig:"MAX_UPLOAD_MB" default:"200"`

	// S3-compatible media archive; leave the bucket empty to disable
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Per-user rate limit; RedisAddr empty falls back to in-process counters
	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	// GCP settings
	GCPProjectID             string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile       string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	PubSubContentEventsTopic string `envconfig:"PUBSUB_CONTENT_EVENTS_TOPIC" default:"content-events"`
	PubSubEmulatorHost       string `envconfig:"PUBSUB_EMULATOR_HOST"`

	// Event relay settings
	EventQueueName           string `envconfig:"EVENT_QUEUE_NAME" default:"content_events"`
	EventDeadLetterQueueName string `envconfig:"EVENT_DEAD_LETTER_QUEUE_NAME" default:"content_events_dlq"`
	EventPollTimeoutSec      int    `envconfig:"EVENT_POLL_TIMEOUT_SEC" default:"30"`
	EventPollMaxMsg          int    `envconfig:"EVENT_POLL_MAX_MSG" default:"10"`
	EventMaxRetries          int    `envconfig:"EVENT_MAX_RETRIES" default:"5"`
	EventBackoffInitialSec   int    `envconfig:"EVENT_BACKOFF_INITIAL_SEC" default:"1"`
	EventBackoffMaxSec       int    `envconfig:"EVENT_BACKOFF_MAX_SEC" default:"60"`

	// Usage reset job
	UsageResetIntervalMin int `envconfig:"USAGE_RESET_INTERVAL_MIN" default:"1440"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
