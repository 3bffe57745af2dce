package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateWebhookSecret returns a cryptographically secure random hex string
// suitable for use as an HMAC-SHA256 signing secret. 32 random bytes encoded
// as hex produces a 64-character string.
func GenerateWebhookSecret() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return hex.EncodeToString(secret), nil
}
