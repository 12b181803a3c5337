package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/pkg/mailer"
)

func testBooking() *models.Booking {
	return &models.Booking{
		BookingID:      "BK-20250601-A1B2C3",
		UserID:         "user-1",
		FirstName:      "Ana",
		LastName:       "Lee",
		Email:          "ana@example.com",
		PassportNumber: "X12345Y",
		Nationality:    "Brazilian",
		DOB:            "1990-01-01",
		Address:        "Street 1",
		SponsorCompany: "Acme",
		SponsorAirline: "SkyAir",
		BookingDate:    "2025-06-01",
		TimeSlot:       "10:00",
	}
}

func TestTemplates(t *testing.T) {
	tpl := NewTemplates("https://portal.example.com", "staff@example.com")

	t.Run("staff new booking lists applicant", func(t *testing.T) {
		b := testBooking()
		b.Address = "<script>alert(1)</script>"

		msg := tpl.StaffNewBooking(b)
		assert.Equal(t, "staff@example.com", msg.To)
		assert.Equal(t, "New IHC Booking: BK-20250601-A1B2C3", msg.Subject)
		assert.Contains(t, msg.HTML, "X12345Y")
		assert.Contains(t, msg.HTML, "SkyAir")
		assert.Contains(t, msg.HTML, "2025-06-01 at 10:00")
		assert.NotContains(t, msg.HTML, "<script>")
		assert.Contains(t, msg.HTML, "&lt;script&gt;")
	})

	t.Run("payment method emails", func(t *testing.T) {
		b := testBooking()
		b.PaymentMethod = models.PaymentMethodCash

		staff := tpl.StaffPaymentMethod(b)
		assert.Equal(t, "Payment Method Submitted: BK-20250601-A1B2C3", staff.Subject)
		assert.Contains(t, staff.HTML, "cash")

		candidate := tpl.CandidatePaymentMethod(b, "ana@example.com")
		assert.Equal(t, "ana@example.com", candidate.To)
		assert.Contains(t, candidate.HTML, "Dear Ana")
		assert.Contains(t, candidate.HTML, "https://portal.example.com/step2.html")
	})

	t.Run("approval links invoice page", func(t *testing.T) {
		msg := tpl.BookingApproved(testBooking(), "new@example.com")
		assert.Equal(t, "new@example.com", msg.To)
		assert.Contains(t, msg.HTML, "https://portal.example.com/invoice.html?bookingId=BK-20250601-A1B2C3")
	})

	t.Run("confirmation carries code", func(t *testing.T) {
		msg := tpl.PaymentConfirmed(testBooking(), "ana@example.com", "IHC-9F8E7D")
		assert.Contains(t, msg.HTML, "IHC-9F8E7D")
	})

	t.Run("password reset", func(t *testing.T) {
		msg := tpl.PasswordReset("Ana Lee", "ana@example.com", "abc123", time.Hour)
		assert.Equal(t, "IHC Password Reset", msg.Subject)
		assert.Contains(t, msg.HTML, "https://portal.example.com/reset-password.html?token=abc123")
		assert.Contains(t, msg.HTML, "valid for 1 hour")
		assert.Equal(t, "https://portal.example.com/reset-password.html?token=abc123", tpl.ResetLink("abc123"))
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1 hour", formatDuration(time.Hour))
	assert.Equal(t, "2 hours", formatDuration(2*time.Hour))
	assert.Equal(t, "30 minutes", formatDuration(30*time.Minute))
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
	wait chan struct{}
}

func (r *recordingSender) GetName() string { return "recording" }

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) (mailer.Receipt, error) {
	if r.wait != nil {
		<-r.wait
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return mailer.Receipt{}, r.err
	}
	r.sent = append(r.sent, msg)
	return mailer.Receipt{Provider: "recording", MessageID: "id-1"}, nil
}

func (r *recordingSender) messages() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.sent...)
}

func TestDispatcher(t *testing.T) {
	msg := mailer.Message{To: "ana@example.com", Subject: "Hi", HTML: "<p>hi</p>"}

	t.Run("sends after request context ends", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		sender := &recordingSender{wait: make(chan struct{})}
		d := NewDispatcher(sender, time.Second, logger)

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, d.Notify(ctx, msg))
		cancel()
		close(sender.wait)

		require.NoError(t, d.Close(context.Background()))
		assert.Equal(t, []mailer.Message{msg}, sender.messages())
	})

	t.Run("rejects missing recipient", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		d := NewDispatcher(&recordingSender{}, time.Second, logger)
		assert.ErrorIs(t, d.Notify(context.Background(), mailer.Message{Subject: "x"}), mailer.ErrNoRecipient)
	})

	t.Run("failure is logged not returned", func(t *testing.T) {
		logger, hook := logtest.NewNullLogger()
		d := NewDispatcher(&recordingSender{err: errors.New("provider said no")}, time.Second, logger)

		require.NoError(t, d.Notify(context.Background(), msg))
		require.NoError(t, d.Close(context.Background()))

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
		assert.Equal(t, "ana@example.com", hook.LastEntry().Data["to"])
	})

	t.Run("closed dispatcher refuses work", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		d := NewDispatcher(&recordingSender{}, time.Second, logger)
		require.NoError(t, d.Close(context.Background()))
		assert.ErrorIs(t, d.Notify(context.Background(), msg), ErrClosed)
	})

	t.Run("close honours deadline", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		sender := &recordingSender{wait: make(chan struct{})}
		defer close(sender.wait)
		d := NewDispatcher(sender, time.Second, logger)
		require.NoError(t, d.Notify(context.Background(), msg))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
	})
}

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	writer := &fakeWriter{}
	p := &KafkaPublisher{writer: writer, topic: "ihc.notifications", logger: logger}
	msg := mailer.Message{To: "staff@example.com", Subject: "New IHC Booking", HTML: "<p>x</p>"}

	require.NoError(t, p.Notify(context.Background(), msg))
	require.Len(t, writer.written, 1)
	assert.Equal(t, []byte("staff@example.com"), writer.written[0].Key)

	var env Envelope
	require.NoError(t, json.Unmarshal(writer.written[0].Value, &env))
	assert.Equal(t, msg, env.Message)
	assert.False(t, env.QueuedAt.IsZero())

	assert.ErrorIs(t, p.Notify(context.Background(), mailer.Message{}), mailer.ErrNoRecipient)

	writer.err = errors.New("broker down")
	err := p.Notify(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ihc.notifications")

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, writer.closed)
}

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.queue) == 0 {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestConsumer_Run(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good, err := json.Marshal(Envelope{
		Message:  mailer.Message{To: "ana@example.com", Subject: "Booking Approved - IHC", HTML: "<p>ok</p>"},
		QueuedAt: time.Now(),
	})
	require.NoError(t, err)

	reader := &fakeReader{
		queue: []kafka.Message{
			{Offset: 1, Value: []byte("{not json")},
			{Offset: 2, Value: good},
		},
		cancel: cancel,
	}
	sender := &recordingSender{}
	c := &Consumer{reader: reader, sender: sender, timeout: time.Second, logger: logger}

	require.NoError(t, c.Run(ctx))

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@example.com", sent[0].To)
	assert.Equal(t, []int64{1, 2}, reader.committed)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned, "malformed record should be logged")
}

func TestNewSender(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	sender, err := NewSender(config.MailConfig{Provider: "log"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "log", sender.GetName())

	sender, err = NewSender(config.MailConfig{Provider: "brevo", BrevoAPIKey: "key"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "brevo", sender.GetName())

	_, err = NewSender(config.MailConfig{Provider: "brevo"}, logger)
	assert.Error(t, err)

	_, err = NewSender(config.MailConfig{Provider: "smtp"}, logger)
	assert.Error(t, err)

	_, err = NewSender(config.MailConfig{Provider: "pigeon"}, logger)
	assert.Error(t, err)
}

func TestNewOutbox(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	cfg := &config.Config{Mail: config.MailConfig{Provider: "log"}, Notify: config.NotifyConfig{Transport: "direct"}}
	outbox, err := NewOutbox(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &Dispatcher{}, outbox)
	require.NoError(t, outbox.Close(context.Background()))

	cfg.Notify.Transport = "kafka"
	_, err = NewOutbox(cfg, logger)
	assert.Error(t, err, "brokers are required")
}
