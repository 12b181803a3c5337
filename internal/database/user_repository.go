package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ihcportal/booking-backend/internal/models"
)

const userColumns = `id, full_name, email, password_hash, payment_status, ihc_code,
	reset_token, reset_token_expiry, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a new user. A taken email yields ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, full_name, email, password_hash, payment_status, ihc_code,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.PaymentStatus,
		user.IHCCode,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByEmail retrieves a user by (normalized) email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", email)
}

// GetByResetToken retrieves the user holding a password reset token
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, "reset_token", token)
}

func (r *UserRepository) getOne(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	err := r.db.GetContext(ctx, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}

// SetResetToken stores a password reset token and its expiry
func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, "set reset token", query, userID, token, expiry)
}

// UpdatePassword replaces the password hash and invalidates any reset token
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token = '', reset_token_expiry = NULL, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, "update password", query, userID, passwordHash)
}

// MarkPaymentConfirmed confirms the user's payment and assigns ihcCode once
func (r *UserRepository) MarkPaymentConfirmed(ctx context.Context, userID, ihcCode string) error {
	query := `
		UPDATE users
		SET payment_status = 'confirmed',
			ihc_code = CASE WHEN ihc_code = '' THEN $2 ELSE ihc_code END,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, "confirm user payment", query, userID, ihcCode)
}

func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
