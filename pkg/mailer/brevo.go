package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBrevoURL is the transactional email endpoint
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoSender implements Sender via the Brevo transactional email API
type BrevoSender struct {
	apiURL string
	apiKey string
	from   From
	client *http.Client
}

// BrevoConfig holds configuration for the Brevo API client
type BrevoConfig struct {
	APIURL  string
	APIKey  string
	From    From
	Timeout time.Duration
}

// NewBrevoSender creates a new Brevo API client
func NewBrevoSender(config BrevoConfig) *BrevoSender {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = DefaultBrevoURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrevoSender{
		apiURL: apiURL,
		apiKey: config.APIKey,
		from:   config.From,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// brevoContact is a sender or recipient entry
type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// brevoSendRequest represents the transactional email request body
type brevoSendRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// brevoSendResponse is returned on 201 Created
type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}

// brevoErrorResponse is returned on 4xx/5xx
type brevoErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetName returns the transport name
func (b *BrevoSender) GetName() string {
	return "brevo"
}

// Send posts the message to the Brevo API
func (b *BrevoSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := checkRecipient(msg); err != nil {
		return Receipt{}, err
	}

	payload := brevoSendRequest{
		Sender:      brevoContact{Name: b.from.Name, Email: b.from.Address},
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to marshal brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create brevo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to send brevo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to read brevo response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr brevoErrorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return Receipt{}, fmt.Errorf("brevo rejected message: %s (code: %s, status: %d)", apiErr.Message, apiErr.Code, resp.StatusCode)
		}
		return Receipt{}, fmt.Errorf("brevo rejected message: status %d", resp.StatusCode)
	}

	var sendResp brevoSendResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &sendResp); err != nil {
			return Receipt{}, fmt.Errorf("failed to parse brevo response: %w", err)
		}
	}

	return Receipt{Provider: b.GetName(), MessageID: sendResp.MessageID}, nil
}
