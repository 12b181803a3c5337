package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/pkg/mailer"
)

// ErrClosed is returned when a notification is submitted after shutdown began
var ErrClosed = errors.New("notifier is closed")

// Notifier hands a message off for delivery. Implementations must not block
// on the mail provider; delivery failures are reported through logs.
type Notifier interface {
	Notify(ctx context.Context, msg mailer.Message) error
}

// Outbox is a Notifier that owns resources released on shutdown
type Outbox interface {
	Notifier
	Close(ctx context.Context) error
}

// Dispatcher sends each message on its own goroutine through a mailer.Sender
type Dispatcher struct {
	sender  mailer.Sender
	timeout time.Duration
	logger  *logrus.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates an in-process dispatcher. Each send gets its own
// timeout, detached from the request that triggered it.
func NewDispatcher(sender mailer.Sender, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{sender: sender, timeout: timeout, logger: logger}
}

// Notify queues msg and returns immediately
func (d *Dispatcher) Notify(ctx context.Context, msg mailer.Message) error {
	if msg.To == "" {
		return mailer.ErrNoRecipient
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		receipt, err := d.sender.Send(sendCtx, msg)
		if err != nil {
			d.logger.WithFields(logrus.Fields{
				"to":        msg.To,
				"subject":   msg.Subject,
				"transport": d.sender.GetName(),
			}).WithError(err).Error("Failed to send notification")
			return
		}
		d.logger.WithFields(logrus.Fields{
			"to":         msg.To,
			"subject":    msg.Subject,
			"transport":  receipt.Provider,
			"message_id": receipt.MessageID,
		}).Info("Notification sent")
	}()
	return nil
}

// Close stops accepting messages and waits for in-flight sends or ctx expiry
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
