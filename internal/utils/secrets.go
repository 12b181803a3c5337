package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateServerSecrets generates the JWT signing secret and the staff API key
func GenerateServerSecrets() (jwtSecret, staffKey string, err error) {
	jwtSecret, err = GenerateSecret(32) // 256-bit
	if err != nil {
		return "", "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}

	staffKey, err = GenerateSecret(24)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate staff key: %w", err)
	}

	return jwtSecret, staffKey, nil
}

// GenerateResetToken generates a single-use password reset token
func GenerateResetToken() (string, error) {
	return GenerateSecret(32)
}
