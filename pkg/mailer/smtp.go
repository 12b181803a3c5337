package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	mail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over an SMTP relay
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	secure   bool // implicit TLS (port 465); otherwise STARTTLS when offered
	from     From
	timeout  time.Duration
}

// SMTPConfig holds configuration for the SMTP relay
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Secure   bool
	From     From
	Timeout  time.Duration
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPSender{
		host:     config.Host,
		port:     config.Port,
		username: config.Username,
		password: config.Password,
		secure:   config.Secure,
		from:     config.From,
		timeout:  timeout,
	}
}

// GetName returns the transport name
func (s *SMTPSender) GetName() string {
	return "smtp"
}

// Send delivers the message through the relay
func (s *SMTPSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := checkRecipient(msg); err != nil {
		return Receipt{}, err
	}

	m, err := buildMessage(s.from, msg, s.host)
	if err != nil {
		return Receipt{}, err
	}

	client, err := mail.NewClient(s.host, s.clientOptions()...)
	if err != nil {
		return Receipt{}, fmt.Errorf("invalid smtp configuration: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return Receipt{}, fmt.Errorf("smtp delivery to %s failed: %w", msg.To, err)
	}

	return Receipt{Provider: s.GetName(), MessageID: m.GetMessageID()}, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(s.timeout),
	}
	if s.secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	return opts
}

// buildMessage renders a single-part HTML message. The body is
// quoted-printable so long template lines stay within SMTP limits.
func buildMessage(from From, msg Message, host string) (*mail.Msg, error) {
	m := mail.NewMsg(mail.WithEncoding(mail.EncodingQP))

	var err error
	if from.Name != "" {
		err = m.FromFormat(from.Name, from.Address)
	} else {
		err = m.From(from.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetMessageIDWithValue(uuid.NewString() + "@" + host)
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}
