package validator

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrPasswordTooLong indicates the password exceeds what bcrypt accepts
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	// ErrInvalidDate indicates a date is not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
)

const (
	// bcrypt rejects input past 72 bytes; binding tags count runes
	MaxPasswordBytes = 72
	DateLayout       = "2006-01-02"
)

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckPasswordBytes rejects passwords bcrypt cannot hash
func CheckPasswordBytes(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD calendar date
func ValidateDate(value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ErrInvalidDate
	}
	return nil
}
