package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesops_backend/internal/appointments"
	"salesops_backend/internal/automation"
	"salesops_backend/internal/confirmation"
	"salesops_backend/internal/events"
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/http/router"
	"salesops_backend/internal/messaging"
	"salesops_backend/internal/scheduler"
	"salesops_backend/migrations"
	"salesops_backend/platform/config"
	"salesops_backend/platform/db"
	"salesops_backend/platform/logger"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	schedClient, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	var confirmationSched scheduler.ConfirmationScheduler
	var delaySched scheduler.TriggerDelayScheduler
	if schedClient != nil {
		confirmationSched = schedClient
		delaySched = schedClient
	}

	registry := buildMessagingRegistry(cfg, pool, log)
	val := validator.New()

	// Automation subscribes to domain events and owns the rule engine.
	automationModule := automation.NewModule(pool, registry, cfg, delaySched, val, log)
	automationModule.RegisterHandlers(eventBus)

	confirmationModule := confirmation.NewModule(pool, confirmationSched, val, log)
	appointmentsModule := appointments.NewModule(pool, eventBus, confirmationModule.Service, val, log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			automationModule,
			confirmationModule,
			appointmentsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; confirmation checks and delayed dispatch disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
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
