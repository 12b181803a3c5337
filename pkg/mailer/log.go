package mailer

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogSender logs messages instead of delivering them (development mode)
type LogSender struct {
	logger *logrus.Logger
}

// NewLogSender creates a sender that only logs
func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// GetName returns the transport name
func (l *LogSender) GetName() string {
	return "log"
}

// Send logs the message and returns a synthetic receipt
func (l *LogSender) Send(_ context.Context, msg Message) (Receipt, error) {
	if err := checkRecipient(msg); err != nil {
		return Receipt{}, err
	}

	id := uuid.NewString()
	l.logger.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"message_id": id,
		"body_bytes": len(msg.HTML),
	}).Info("Email (dev mode, not sent)")

	return Receipt{Provider: l.GetName(), MessageID: id}, nil
}
