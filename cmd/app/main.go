package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"creatorhub/internal/api/v1/router"
	"creatorhub/internal/config"
	"creatorhub/internal/database"
	"creatorhub/internal/genai"
	"creatorhub/internal/logger"
	"creatorhub/internal/secrets"
	"creatorhub/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// @title CreatorHub API
// @version 1.0
// @description Content idea generation and video repurposing for creators
// @host localhost:8080
// @BasePath /v1
// @Schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	log := logger.New()
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()
	log.Info().Msg("Database connection successful")

	engine := newEngine(ctx, cfg, log)
	media := newMediaStore(ctx, cfg, log)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis ping failed; rate limiting fails open until it recovers")
		}
	}

	handler, err := router.New(cfg, router.Deps{DB: db, Engine: engine, Media: media, Redis: redisClient}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.EngineTimeoutSec)*time.Second*3 + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("Listen: %s", err)
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server shut down gracefully")
}

func newEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) *genai.OpenAIClient {
	apiKey := cfg.EngineAPIKey
	if cfg.EngineAPIKeySecret != "" {
		resolver, err := secrets.NewSecretManagerResolver(ctx, cfg.GCPProjectID, cfg.GCPCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create secret resolver")
		}
		apiKey, err = resolver.Resolve(ctx, cfg.EngineAPIKeySecret)
		resolver.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to resolve engine API key")
		}
		log.Info().Msg("Engine API key loaded from Secret Manager")
	}
	if apiKey == "" {
		log.Warn().Msg("No engine API key configured; idea generation will use fallback content")
	}

	engine := genai.NewOpenAIClient(genai.OpenAIConfig{
		BaseURL:            cfg.EngineBaseURL,
		APIKey:             apiKey,
		Model:              cfg.EngineModel,
		TranscriptionModel: cfg.EngineTranscriptionModel,
		MaxTokens:          cfg.EngineMaxTokens,
		MinMediaBytes:      cfg.MediaMinBytes,
		Timeout:            time.Duration(cfg.EngineTimeoutSec) * time.Second,
	}, log)

	if cfg.EngineValidateKey {
		checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := engine.ValidateAPIKey(checkCtx); err != nil {
			log.Warn().Err(err).Msg("Engine API key check failed")
		} else {
			log.Info().Msg("Engine API key verified")
		}
	}
	return engine
}

func newMediaStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) storage.MediaStore {
	if cfg.S3Bucket == "" {
		log.Info().Msg("No media bucket configured; source media is not archived")
		return storage.NoopMediaStore{}
	}
	client, err := storage.NewS3Client(ctx, storage.S3Config{
		Endpoint:  cfg.S3URL,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load S3 config")
	}
	return storage.NewS3MediaStore(client, cfg.S3Bucket)
}
