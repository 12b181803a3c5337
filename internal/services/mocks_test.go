package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"github.com/ihcportal/booking-backend/internal/database"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/pkg/mailer"
)

// MockBookingStore is a testify mock of database.BookingStore
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingStore) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingStore) ListAll(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingStore) Update(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	if args.Error(0) == nil {
		booking.Version++
	}
	return args.Error(0)
}

func (m *MockBookingStore) Delete(ctx context.Context, bookingID string, version int) error {
	args := m.Called(ctx, bookingID, version)
	return args.Error(0)
}

// MockNotifier is a testify mock of notify.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockAuditStore is a testify mock of database.AuditStore
type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// memUserStore is an in-memory database.UserStore with a unique email index
type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore(users ...models.User) *memUserStore {
	s := &memUserStore{users: map[string]models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memUserStore) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if token != "" && u.ResetToken == token {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memUserStore) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	s.users[userID] = u
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	s.users[userID] = u
	return nil
}

func (s *memUserStore) MarkPaymentConfirmed(_ context.Context, userID, ihcCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.PaymentStatus = models.PaymentStatusConfirmed
	if u.IHCCode == "" {
		u.IHCCode = ihcCode
	}
	s.users[userID] = u
	return nil
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// memBookingStore is an in-memory database.BookingStore with version checks
type memBookingStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	order    []string
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: map[string]models.Booking{}}
}

func (s *memBookingStore) Create(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[booking.BookingID]; ok {
		return database.ErrDuplicateBookingID
	}
	s.bookings[booking.BookingID] = *booking
	s.order = append(s.order, booking.BookingID)
	return nil
}

func (s *memBookingStore) GetByBookingID(_ context.Context, bookingID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &b, nil
}

func (s *memBookingStore) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, id := range s.order {
		if b, ok := s.bookings[id]; ok && b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memBookingStore) ListAll(_ context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for i := len(s.order) - 1; i >= 0; i-- {
		if b, ok := s.bookings[s.order[i]]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memBookingStore) Update(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[booking.BookingID]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != booking.Version {
		return database.ErrVersionConflict
	}
	booking.Version++
	s.bookings[booking.BookingID] = *booking
	return nil
}

func (s *memBookingStore) Delete(_ context.Context, bookingID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[bookingID]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != version {
		return database.ErrVersionConflict
	}
	delete(s.bookings, bookingID)
	return nil
}

// recordingNotifier keeps every message handed to it
type recordingNotifier struct {
	mu       sync.Mutex
	messages []mailer.Message
	failTo   string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg mailer.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil && (n.failTo == "" || n.failTo == msg.To) {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) sentTo(to string) []mailer.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []mailer.Message
	for _, m := range n.messages {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestLogger() *logrus.Logger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
