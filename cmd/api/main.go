package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studiohub/internal/config"
	"studiohub/internal/database"
	"studiohub/internal/domain"
	"studiohub/internal/jobs"
	"studiohub/internal/pkg/events"
	"studiohub/internal/pkg/logger"
	"studiohub/internal/pkg/stripe"
	"studiohub/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	log := logger.New(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(context.Background(), db, log, domain.Models()...); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, log.Named("events"))
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Info("event publishing enabled", zap.String("exchange", events.ExchangeName))
	} else {
		log.Warn("RABBITMQ_URL is empty, domain events are dropped")
	}

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is empty, card payments are disabled")
	}

	app := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Publisher: publisher,
		Processor: stripe.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
	})

	var scheduler *jobs.Scheduler
	if cfg.ReconcileCron != "" {
		scheduler, err = jobs.NewScheduler(cfg.ReconcileCron, app.Reconciler, log.Named("jobs"))
		if err != nil {
			log.Fatal("invalid RECONCILE_CRON", zap.String("spec", cfg.ReconcileCron), zap.Error(err))
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	log.Info("server stopped")
}
