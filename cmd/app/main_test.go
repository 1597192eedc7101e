package main

import (
	"context"
	"testing"

	"creatorhub/internal/config"
	"creatorhub/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMediaStore(t *testing.T) {
	store := newMediaStore(context.Background(), &config.Config{}, zerolog.Nop())
	assert.IsType(t, storage.NoopMediaStore{}, store)

	store = newMediaStore(context.Background(), &config.Config{
		S3URL:       "http://localhost:9000",
		S3Bucket:    "media",
		S3Region:    "us-east-1",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	}, zerolog.Nop())
	require.NotNil(t, store)
	assert.IsType(t, &storage.S3MediaStore{}, store)
}

func TestNewEngine_WithoutSecret(t *testing.T) {
	engine := newEngine(context.Background(), &config.Config{
		EngineBaseURL: "http://localhost:1",
		EngineAPIKey:  "sk-test",
		EngineModel:   "gpt-4o-mini",
	}, zerolog.Nop())
	require.NotNil(t, engine)
}
