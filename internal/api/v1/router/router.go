package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"creatorhub/internal/api/v1/handler"
	"creatorhub/internal/config"
	"creatorhub/internal/genai"
	"creatorhub/internal/metrics"
	"creatorhub/internal/middleware"
	"creatorhub/internal/quota"
	"creatorhub/internal/ratelimit"
	"creatorhub/internal/repository"
	"creatorhub/internal/service"
	"creatorhub/internal/storage"
	"creatorhub/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Deps are the process-level resources the router does not own.
type Deps struct {
	DB     *sql.DB
	Engine genai.Engine
	Media  storage.MediaStore
	Redis  *redis.Client
}

func New(cfg *config.Config, deps Deps, logger zerolog.Logger) (http.Handler, error) {
	verifier, err := util.NewTokenVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to build token verifier: %w", err)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(registry, "creatorhub")

	ledger := quota.NewLedger()
	userRepo := repository.NewUserRepo(deps.DB)
	contentRepo := repository.NewContentRepo(deps.DB, logger)
	artifactRecorder := repository.NewArtifactRecorder(deps.DB, ledger, cfg.EventQueueName, logger)

	contentSvc := service.NewContentService(userRepo, contentRepo, artifactRecorder, ledger, deps.Engine, deps.Media, recorder,
		service.ContentServiceConfig{
			TranscriptionRetry: service.RetryPolicy{
				MaxAttempts: cfg.TranscribeMaxAttempts,
				Backoff:     time.Duration(cfg.TranscribeBackoffSec) * time.Second,
			},
			FanoutConcurrency: cfg.FanoutConcurrency,
			MediaMinBytes:     cfg.MediaMinBytes,
		}, logger)
	userSvc := service.NewUserService(userRepo, ledger)

	contentHandler := handler.NewContentHandler(contentSvc, validate, cfg.MaxUploadMB<<20, logger)
	userHandler := handler.NewUserHandler(userSvc, logger)

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if deps.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(deps.Redis, "creatorhub:ratelimit")
	}
	authMw := middleware.AuthMiddleware(verifier, logger)
	rateMw := middleware.RateLimitMiddleware(limiter, cfg.RateLimitPerMinute, "api", recorder, logger)
	protected := func(next http.Handler) http.Handler { return authMw(rateMw(next)) }

	apiV1Mux := http.NewServeMux()
	contentHandler.RegisterRoutes(apiV1Mux, protected)
	userHandler.RegisterRoutes(apiV1Mux, protected)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// Redirect /api/* to /v1/* for older clients
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/v1/"+strings.TrimPrefix(r.URL.Path, "/api/"), http.StatusMovedPermanently)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")
	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), nil
}
