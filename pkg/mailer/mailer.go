package mailer

import (
	"context"
	"errors"
)

// ErrNoRecipient is returned when a message has no recipient address
var ErrNoRecipient = errors.New("no recipient address")

// Message is a single transactional email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Receipt identifies an accepted message at the provider
type Receipt struct {
	Provider  string `json:"provider"`
	MessageID string `json:"messageId,omitempty"`
}

// Sender defines the interface for delivering email
type Sender interface {
	// Send delivers one message and returns the provider receipt.
	// Errors carry the provider's reason for rejecting the message.
	Send(ctx context.Context, msg Message) (Receipt, error)

	// GetName returns the name of the transport implementation
	GetName() string
}

// From is the sender identity used by every transport
type From struct {
	Name    string
	Address string
}

func checkRecipient(msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	return nil
}
