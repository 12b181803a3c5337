package notify

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/pkg/mailer"
)

const retryBackoff = 2 * time.Second

// NewSender builds the configured mail transport wrapped with bounded retries
func NewSender(cfg config.MailConfig, logger *logrus.Logger) (mailer.Sender, error) {
	from := mailer.From{Name: cfg.FromName, Address: cfg.FromAddress}

	var sender mailer.Sender
	switch cfg.Provider {
	case "brevo":
		if cfg.BrevoAPIKey == "" {
			return nil, fmt.Errorf("BREVO_API_KEY is required for the brevo mail provider")
		}
		sender = mailer.NewBrevoSender(mailer.BrevoConfig{
			APIURL:  cfg.BrevoAPIURL,
			APIKey:  cfg.BrevoAPIKey,
			From:    from,
			Timeout: cfg.SendTimeout,
		})
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp mail provider")
		}
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			Secure:   cfg.SMTPSecure,
			From:     from,
			Timeout:  cfg.SendTimeout,
		})
	case "log", "":
		sender = mailer.NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	return mailer.NewRetrySender(sender, cfg.MaxRetries, retryBackoff), nil
}

// NewOutbox returns the notifier the API process hands messages to.
// With the kafka transport mail leaves through the topic; otherwise it is
// sent in-process.
func NewOutbox(cfg *config.Config, logger *logrus.Logger) (Outbox, error) {
	if cfg.Notify.Transport == "kafka" {
		if len(cfg.Notify.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_BROKERS is required for the kafka notify transport")
		}
		logger.WithField("topic", cfg.Notify.KafkaTopic).Info("Notifications queued through Kafka")
		return NewKafkaPublisher(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, logger), nil
	}

	sender, err := NewSender(cfg.Mail, logger)
	if err != nil {
		return nil, err
	}
	logger.WithField("transport", sender.GetName()).Info("Notifications sent in-process")
	return NewDispatcher(sender, cfg.Mail.SendTimeout, logger), nil
}
