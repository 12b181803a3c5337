package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ihcportal/booking-backend/internal/models"
)

const bookingColumns = `booking_id, user_id, first_name, middle_name, last_name, email,
	passport_number, nationality, dob, address, sponsor_company, sponsor_airline,
	booking_date, time_slot, booking_status, payment_method, payment_status,
	invoice_url, ihc_code, version, created_at, updated_at`

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking. A taken booking id yields ErrDuplicateBookingID
// so the caller can regenerate it.
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			booking_id, user_id, first_name, middle_name, last_name, email,
			passport_number, nationality, dob, address, sponsor_company, sponsor_airline,
			booking_date, time_slot, booking_status, payment_method, payment_status,
			invoice_url, ihc_code, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		b.BookingID, b.UserID, b.FirstName, b.MiddleName, b.LastName, b.Email,
		b.PassportNumber, b.Nationality, b.DOB, b.Address, b.SponsorCompany, b.SponsorAirline,
		b.BookingDate, b.TimeSlot, b.BookingStatus, b.PaymentMethod, b.PaymentStatus,
		b.InvoiceURL, b.IHCCode, b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBookingID
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByBookingID retrieves a booking by its public id
func (r *BookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE booking_id = $1`, bookingColumns)

	if err := r.db.GetContext(ctx, &booking, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// ListByUser returns a user's bookings in creation order
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE user_id = $1 ORDER BY created_at ASC, booking_id ASC`, bookingColumns)

	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bookings for user: %w", err)
	}

	return bookings, nil
}

// ListAll returns every booking, newest first
func (r *BookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := fmt.Sprintf(`SELECT %s FROM bookings ORDER BY created_at DESC, booking_id DESC`, bookingColumns)

	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// Update writes the mutable booking fields guarded by the version column
func (r *BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	query := `
		UPDATE bookings
		SET email = $3,
			booking_status = $4,
			payment_method = $5,
			payment_status = $6,
			invoice_url = $7,
			ihc_code = $8,
			version = version + 1,
			updated_at = $9
		WHERE booking_id = $1 AND version = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		b.BookingID, b.Version,
		b.Email, b.BookingStatus, b.PaymentMethod, b.PaymentStatus, b.InvoiceURL, b.IHCCode,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if rows == 0 {
		return r.missingOrConflict(ctx, b.BookingID)
	}

	b.Version++
	b.UpdatedAt = now
	return nil
}

// Delete removes a booking guarded by the version column
func (r *BookingRepository) Delete(ctx context.Context, bookingID string, version int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE booking_id = $1 AND version = $2`, bookingID, version)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if rows == 0 {
		return r.missingOrConflict(ctx, bookingID)
	}
	return nil
}

// missingOrConflict distinguishes a vanished row from a version mismatch
func (r *BookingRepository) missingOrConflict(ctx context.Context, bookingID string) error {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
