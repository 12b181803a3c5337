package models

import (
	"time"
)

// PaymentStatus is shared by users and bookings
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
)

// User represents a portal candidate account.
// Password and reset fields never leave the server; use Profile for responses.
type User struct {
	ID               string        `json:"id" db:"id" bson:"_id"`
	FullName         string        `json:"fullName" db:"full_name" bson:"fullName"`
	Email            string        `json:"email" db:"email" bson:"email"`
	PasswordHash     string        `json:"-" db:"password_hash" bson:"passwordHash"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" db:"payment_status" bson:"paymentStatus"`
	IHCCode          string        `json:"ihcCode" db:"ihc_code" bson:"ihcCode"`
	ResetToken       string        `json:"-" db:"reset_token" bson:"resetToken,omitempty"`
	ResetTokenExpiry *time.Time    `json:"-" db:"reset_token_expiry" bson:"resetTokenExpiry,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// UserProfile is the public projection of a User
type UserProfile struct {
	ID            string        `json:"id"`
	FullName      string        `json:"fullName"`
	Email         string        `json:"email"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	IHCCode       string        `json:"ihcCode,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Profile returns the fields safe to expose to the account owner
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		PaymentStatus: u.PaymentStatus,
		IHCCode:       u.IHCCode,
		CreatedAt:     u.CreatedAt,
	}
}

// ResetTokenValid reports whether the stored reset token matches and has not expired
func (u *User) ResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || u.ResetToken != token || u.ResetTokenExpiry == nil {
		return false
	}
	return now.Before(*u.ResetTokenExpiry)
}

// UserStatus is the payment/code summary shown on the candidate dashboard
type UserStatus struct {
	FullName      string        `json:"fullName"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	IHCCode       string        `json:"ihcCode"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest represents the password reset request body
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the password reset confirmation body
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	FullName string `json:"fullName,omitempty"`
}
