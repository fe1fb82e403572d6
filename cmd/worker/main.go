package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/push"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
)

// The worker drains booking push events off the broker and delivers them
// through FCM. It runs separately from the API so push latency and FCM
// outages never touch the booking path.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender, err := push.NewSender(ctx, cfg.Push.CredentialsFile, postgres.NewDeviceRepository(db))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize push sender")
	}

	events, err := broker.Subscribe(ctx, messaging.PushChannel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to push channel")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down worker")
		cancel()
	}()

	log.Info().Str("channel", messaging.PushChannel).Msg("push dispatcher started")

	for payload := range events {
		var event model.PushEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Warn().Err(err).Msg("discarding malformed push event")
			continue
		}

		err := sender.SendToUser(ctx, event.UserID, event.Title, event.Body, map[string]string{
			"appointment_id": event.AppointmentID.String(),
			"kind":           string(event.Kind),
		})
		if err != nil {
			log.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Str("user_id", event.UserID.String()).
				Msg("push delivery failed")
		}
	}

	log.Info().Msg("worker stopped")
}
