package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a user with the same email exists
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateBookingID is returned when a generated booking id is taken
	ErrDuplicateBookingID = errors.New("booking id already exists")

	// ErrVersionConflict is returned when a conditional update lost a race
	ErrVersionConflict = errors.New("booking was modified concurrently")
)

// UserStore persists candidate accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	// MarkPaymentConfirmed sets payment status to confirmed and assigns
	// ihcCode only when the user has none yet.
	MarkPaymentConfirmed(ctx context.Context, userID, ihcCode string) error
}

// BookingStore persists bookings
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	// Update writes the mutable fields if the stored version still equals
	// booking.Version, then increments booking.Version.
	Update(ctx context.Context, booking *models.Booking) error
	// Delete removes the booking if the stored version equals version.
	Delete(ctx context.Context, bookingID string, version int) error
}

// AuditStore persists audit log entries
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
}

// Stores bundles the repositories of one backend
type Stores struct {
	Users    UserStore
	Bookings BookingStore
	Audit    AuditStore
	Backend  string

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	clear   func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Ping checks the underlying connection
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Migrate creates tables or indexes for the backend
func (s *Stores) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

// Clear removes every booking and audit entry. Accounts are kept.
func (s *Stores) Clear(ctx context.Context) error {
	return s.clear(ctx)
}

// Close releases the underlying connection
func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}

// Open connects to the backend selected by the database URL scheme
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	switch {
	case strings.HasPrefix(cfg.URL, "mongodb://"), strings.HasPrefix(cfg.URL, "mongodb+srv://"):
		client, err := NewMongoConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewMongoStores(client, cfg.Name), nil
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		db, err := NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresStores(db), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme (expected postgres:// or mongodb://)")
	}
}

// NewPostgresStores wires the sqlx repositories over db
func NewPostgresStores(db *PostgresDB) *Stores {
	return &Stores{
		Users:    NewUserRepository(db),
		Bookings: NewBookingRepository(db),
		Audit:    NewAuditRepository(db),
		Backend:  "postgres",
		ping:     db.PingContext,
		migrate:  func(ctx context.Context) error { return Migrate(ctx, db) },
		clear:    func(ctx context.Context) error { return ClearData(ctx, db) },
		close:    func(context.Context) error { return db.Close() },
	}
}
