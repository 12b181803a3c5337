package mailer

import (
	"context"
	"errors"
	"time"
)

// RetrySender retries failed sends a bounded number of times
type RetrySender struct {
	next       Sender
	maxRetries int
	backoff    time.Duration
}

// NewRetrySender wraps next with up to maxRetries extra attempts
func NewRetrySender(next Sender, maxRetries int, backoff time.Duration) *RetrySender {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetrySender{next: next, maxRetries: maxRetries, backoff: backoff}
}

// GetName returns the wrapped transport name
func (r *RetrySender) GetName() string {
	return r.next.GetName()
}

// Send delivers msg, retrying transport failures. A missing recipient is not retried.
func (r *RetrySender) Send(ctx context.Context, msg Message) (Receipt, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 && r.backoff > 0 {
			select {
			case <-ctx.Done():
				return Receipt{}, ctx.Err()
			case <-time.After(r.backoff * time.Duration(attempt)):
			}
		}

		receipt, err := r.next.Send(ctx, msg)
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, ErrNoRecipient) {
			return Receipt{}, err
		}
		lastErr = err
	}
	return Receipt{}, lastErr
}
