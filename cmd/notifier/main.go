package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/notify"
)

// The notifier drains the Kafka notification topic the API writes to when
// NOTIFY_TRANSPORT=kafka, and delivers each message through the mail provider.
func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// The worker needs no database, so only the mail and notify sections are read
	_ = godotenv.Load()
	cfg := config.FromEnv()

	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if len(cfg.Notify.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is not set")
	}

	sender, err := notify.NewSender(cfg.Mail, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize mail sender: %v", err)
	}

	consumer := notify.NewConsumer(
		cfg.Notify.KafkaBrokers,
		cfg.Notify.KafkaGroupID,
		cfg.Notify.KafkaTopic,
		sender,
		cfg.Mail.SendTimeout,
		logger,
	)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"topic":    cfg.Notify.KafkaTopic,
		"group_id": cfg.Notify.KafkaGroupID,
		"provider": sender.GetName(),
	}).Info("Notifier started")

	if err := consumer.Run(ctx); err != nil {
		logger.Errorf("Notifier stopped: %v", err)
		return
	}
	logger.Info("Notifier exited")
}
