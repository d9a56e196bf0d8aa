// Command reconcile runs the reconciliation jobs once and exits. It is meant
// for deployments that schedule maintenance outside the API process.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"studiohub/internal/config"
	"studiohub/internal/database"
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

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, log.Named("events"))
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	app := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Publisher: publisher,
		Processor: stripe.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := app.Reconciler.RunOnce(ctx)
	if err != nil {
		log.Error("reconciliation failed", zap.Error(err))
		os.Exit(1)
	}

	fields := []zap.Field{zap.Int64("overdue", res.Overdue)}
	if res.Payments != nil {
		fields = append(fields,
			zap.Int("payments_checked", res.Payments.Checked),
			zap.Int("payments_succeeded", res.Payments.Succeeded),
			zap.Int("payments_failed", res.Payments.Failed),
		)
	}
	log.Info("reconciliation completed", fields...)
}
