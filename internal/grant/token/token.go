// Package token generates one-time login secrets and derives their stored
// digests. Pure functions, no state: the lifecycle service owns when and how
// secrets travel.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SecretBytes is the raw entropy per secret (32 bytes = 64 hex characters).
const SecretBytes = 32

// GenerateSecret returns a fresh secret as a fixed-length hex string.
// Entropy failure propagates; a degraded secret must never be issued.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read secure random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret returns the SHA-256 digest of the secret's hex encoding.
// Only this digest is ever persisted or logged.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
