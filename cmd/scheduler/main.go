package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesops_backend/internal/automation"
	"salesops_backend/internal/events"
	"salesops_backend/internal/messaging"
	"salesops_backend/internal/scheduler"
	"salesops_backend/platform/config"
	"salesops_backend/platform/db"
	"salesops_backend/platform/logger"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	registry := buildMessagingRegistry(cfg, pool, log)
	val := validator.New()

	// Automation engine runs worker-side too: due and overdue publishes from
	// this process must dispatch rules without an API round trip.
	automationModule := automation.NewModule(pool, registry, cfg, nil, val, log)
	automationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	worker.SetTriggerDispatcher(automationModule.Dispatcher())

	worker.Run(ctx)
}

func buildMessagingRegistry(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) *messaging.Registry {
	registry := messaging.NewRegistry(log)

	if cfg.GetEmailEnabled() {
		registry.Register(messaging.ChannelEmail, messaging.NewEmailProvider(cfg))
		log.Info("email provider registered", "host", cfg.GetSMTPHost())
	}
	if cfg.GetSMSGatewayURL() != "" {
		registry.Register(messaging.ChannelSMS, messaging.NewSMSProvider(cfg.GetSMSGatewayURL(), cfg.GetSMSGatewayAPIKey()))
		log.Info("sms provider registered")
	}
	if cfg.GetVoiceGatewayURL() != "" {
		registry.Register(messaging.ChannelVoice, messaging.NewVoiceProvider(cfg.GetVoiceGatewayURL(), cfg.GetVoiceGatewayAPIKey()))
		log.Info("voice provider registered")
	}
	registry.Register(messaging.ChannelInApp, messaging.NewInAppProvider(pool))

	return registry
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
