package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Format: BK-YYYYMMDD-XXXXXX (6 uppercase hex chars)
// Example: BK-20250601-A1B2C3
var BookingIDPattern = regexp.MustCompile(`^BK-\d{8}-[0-9A-F]{6}$`)

// Format: IHC-XXXXXX (6 uppercase hex chars)
var IHCCodePattern = regexp.MustCompile(`^IHC-[0-9A-F]{6}$`)

// GenerateBookingID generates a booking id for the given day.
// Uniqueness is enforced by the store; callers regenerate on conflict.
func GenerateBookingID(now time.Time) (string, error) {
	suffix, err := randomHexUpper(3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BK-%s-%s", now.Format("20060102"), suffix), nil
}

// GenerateIHCCode generates the confirmation code issued on payment
func GenerateIHCCode() (string, error) {
	suffix, err := randomHexUpper(3)
	if err != nil {
		return "", err
	}
	return "IHC-" + suffix, nil
}

func randomHexUpper(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
