package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const SessionCookieName = "finlink_session"

// NewSessionSecret returns a fresh 32-byte random secret, hex encoded.
// The raw value goes to the browser; only its digest is stored.
func NewSessionSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// SessionDigest is the stored form of a session secret. One-way, so a
// leaked sessions table cannot be replayed against the API.
func SessionDigest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
