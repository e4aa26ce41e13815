// Command notifier consumes booking notifications from Kafka and emails passengers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"busline/internal/notifications"
	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.SetDefault(logger.NewWithWriter(os.Stdout, cfg.LogLevel))
	appLogger := logger.GetDefault().WithComponent("notifier")

	if cfg.Messaging.Transport != "kafka" {
		appLogger.Error("notifier needs NOTIFY_TRANSPORT=kafka", slog.String("transport", cfg.Messaging.Transport))
		os.Exit(1)
	}

	var deliverer notifications.Deliverer = notifications.NewLogDeliverer()
	if cfg.Messaging.SMTPHost != "" {
		smtpDeliverer, err := notifications.NewSMTPDeliverer(notifications.SMTPConfig{
			Host:      cfg.Messaging.SMTPHost,
			Port:      cfg.Messaging.SMTPPort,
			Username:  cfg.Messaging.SMTPUsername,
			Password:  cfg.Messaging.SMTPPassword,
			FromEmail: cfg.Messaging.SMTPFrom,
			FromName:  cfg.Messaging.SMTPFromName,
			UseTLS:    cfg.Messaging.SMTPUseTLS,
		})
		if err != nil {
			appLogger.Error("invalid SMTP settings", slog.Any("error", err))
			os.Exit(1)
		}
		deliverer = smtpDeliverer
	} else {
		appLogger.Info("SMTP_HOST not set, notifications will only be logged")
	}

	consumer, err := notifications.NewConsumer(
		notifications.DefaultConsumerConfig(cfg.Messaging.KafkaBrokers, cfg.Messaging.KafkaTopic),
		deliverer,
	)
	if err != nil {
		appLogger.Error("failed to start consumer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	consumer.Start(ctx)
	<-ctx.Done()

	appLogger.Info("shutting down notifier")
	if err := consumer.Stop(); err != nil {
		appLogger.Error("error stopping consumer", slog.Any("error", err))
	}
}
