package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/pkg/mailer"
)

// Envelope is the record written to the notification topic
type Envelope struct {
	Message  mailer.Message `json:"message"`
	QueuedAt time.Time      `json:"queuedAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues notifications on a topic for cmd/notifier to deliver
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// Notify writes msg to the topic keyed by recipient
func (p *KafkaPublisher) Notify(ctx context.Context, msg mailer.Message) error {
	if msg.To == "" {
		return mailer.ErrNoRecipient
	}

	data, err := json.Marshal(Envelope{Message: msg, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to write notification to %s: %w", p.topic, err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":   p.topic,
		"to":      msg.To,
		"subject": msg.Subject,
	}).Debug("Notification queued")
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close(_ context.Context) error {
	return p.writer.Close()
}

// Consumer reads queued notifications and delivers them through a mailer.Sender
type Consumer struct {
	reader  messageReader
	sender  mailer.Sender
	timeout time.Duration
	logger  *logrus.Logger
}

// NewConsumer joins groupID on topic
func NewConsumer(brokers []string, groupID, topic string, sender mailer.Sender, timeout time.Duration, logger *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &Consumer{reader: reader, sender: sender, timeout: timeout, logger: logger}
}

// Run delivers messages until ctx is cancelled. Each record is committed
// after one delivery attempt; undeliverable mail is logged, not redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch notification: %w", err)
		}

		c.deliver(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit offset %d: %w", m.Offset, err)
		}
	}
}

// Close leaves the consumer group
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) deliver(ctx context.Context, m kafka.Message) {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.logger.WithFields(logrus.Fields{
			"partition": m.Partition,
			"offset":    m.Offset,
		}).WithError(err).Warn("Skipping malformed notification")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fields := logrus.Fields{
		"to":        env.Message.To,
		"subject":   env.Message.Subject,
		"queued_at": env.QueuedAt,
	}
	receipt, err := c.sender.Send(sendCtx, env.Message)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Error("Failed to deliver notification")
		return
	}
	fields["message_id"] = receipt.MessageID
	c.logger.WithFields(fields).Info("Notification delivered")
}
