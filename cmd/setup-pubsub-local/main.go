package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"creatorhub/internal/config"
	"creatorhub/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const retention = 7 * 24 * time.Hour

func main() {
	reset := flag.Bool("reset", false, "Delete every topic and subscription on the emulator first")
	flag.Parse()

	log := logger.New()
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, relying on system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		log.Fatal().Msg("GCP_PROJECT_ID is not set")
	}
	if cfg.PubSubEmulatorHost == "" {
		log.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set; this tool only targets the emulator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		log.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer client.Close()

	if *reset {
		if err := resetEmulator(ctx, client, log); err != nil {
			log.Fatal().Err(err).Msg("Emulator reset failed")
		}
	}

	topicID := cfg.PubSubContentEventsTopic
	dlq, err := ensureTopic(ctx, client, log, topicID+"-dlq")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure dead-letter topic")
	}
	topic, err := ensureTopic(ctx, client, log, topicID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure events topic")
	}

	subs := map[string]pubsub.SubscriptionConfig{
		topicID + "-sub": {
			Topic:       topic,
			AckDeadline: 60 * time.Second,
			RetryPolicy: &pubsub.RetryPolicy{MinimumBackoff: 10 * time.Second, MaximumBackoff: 600 * time.Second},
			DeadLetterPolicy: &pubsub.DeadLetterPolicy{
				DeadLetterTopic:     dlq.String(),
				MaxDeliveryAttempts: 5,
			},
		},
		topicID + "-dlq-sub": {Topic: dlq, AckDeadline: 60 * time.Second},
	}
	for id, subCfg := range subs {
		if err := ensureSubscription(ctx, client, log, id, subCfg); err != nil {
			log.Fatal().Err(err).Str("subscription", id).Msg("Failed to ensure subscription")
		}
	}
	log.Info().Msg("Pub/Sub setup for local environment complete")
}

func resetEmulator(ctx context.Context, client *pubsub.Client, log zerolog.Logger) error {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		log.Info().Str("subscription", sub.ID()).Msg("Deleting subscription")
		if err := sub.Delete(ctx); err != nil {
			log.Warn().Err(err).Str("subscription", sub.ID()).Msg("Delete failed")
		}
	}
	topics := client.Topics(ctx)
	for {
		t, err := topics.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().Str("topic", t.ID()).Msg("Deleting topic")
		if err := t.Delete(ctx); err != nil {
			log.Warn().Err(err).Str("topic", t.ID()).Msg("Delete failed")
		}
	}
}

func ensureTopic(ctx context.Context, client *pubsub.Client, log zerolog.Logger, id string) (*pubsub.Topic, error) {
	topic := client.Topic(id)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Info().Str("topic", id).Msg("Topic already exists")
		return topic, nil
	}
	log.Info().Str("topic", id).Dur("retention", retention).Msg("Creating topic")
	return client.CreateTopicWithConfig(ctx, id, &pubsub.TopicConfig{RetentionDuration: retention})
}

func ensureSubscription(ctx context.Context, client *pubsub.Client, log zerolog.Logger, id string, cfg pubsub.SubscriptionConfig) error {
	sub := client.Subscription(id)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		log.Info().Str("subscription", id).Msg("Creating subscription")
		_, err := client.CreateSubscription(ctx, id, cfg)
		return err
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		return err
	}
	if existing.AckDeadline == cfg.AckDeadline && sameRetry(existing.RetryPolicy, cfg.RetryPolicy) {
		log.Info().Str("subscription", id).Msg("Subscription is up to date")
		return nil
	}
	log.Info().Str("subscription", id).Msg("Updating subscription")
	_, err = sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		AckDeadline: cfg.AckDeadline,
		RetryPolicy: cfg.RetryPolicy,
	})
	return err
}

func sameRetry(a, b *pubsub.RetryPolicy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.MinimumBackoff == b.MinimumBackoff && a.MaximumBackoff == b.MaximumBackoff
}
