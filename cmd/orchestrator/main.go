package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"creatorhub/internal/config"
	"creatorhub/internal/database"
	"creatorhub/internal/logger"
	"creatorhub/internal/orchestrator/eventrelay"
	"creatorhub/internal/orchestrator/usagereset"
	"creatorhub/internal/pgmq"
	"creatorhub/internal/pubsub"
	"creatorhub/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	mode := flag.String("mode", "", "Orchestrator mode: event-relay|usage-reset")
	flag.Parse()

	log := logger.New()
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	var runErr error
	switch *mode {
	case "event-relay":
		publisher, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID, cfg.GCPCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Pub/Sub publisher")
		}
		defer publisher.Close()
		relay := eventrelay.New(pgmq.New(db), publisher, eventrelay.Config{
			Queue:           cfg.EventQueueName,
			DeadLetterQueue: cfg.EventDeadLetterQueueName,
			Topic:           cfg.PubSubContentEventsTopic,
			PollTimeoutSec:  cfg.EventPollTimeoutSec,
			PollMaxMsg:      cfg.EventPollMaxMsg,
			MaxRetries:      cfg.EventMaxRetries,
			BackoffInitial:  time.Duration(cfg.EventBackoffInitialSec) * time.Second,
			BackoffMax:      time.Duration(cfg.EventBackoffMaxSec) * time.Second,
		}, log)
		runErr = relay.Run(ctx)
	case "usage-reset":
		interval := time.Duration(cfg.UsageResetIntervalMin) * time.Minute
		runErr = usagereset.Run(ctx, log, repository.NewUsageRepo(db), interval)
	default:
		log.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		log.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}
	log.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
