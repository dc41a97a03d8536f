package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SessionTokenBytes is the entropy of a session token before encoding
const SessionTokenBytes = 32

// GenerateToken returns a URL-safe random token built from n bytes of
// crypto/rand output.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSessionToken returns a 43 character session token
func GenerateSessionToken() (string, error) {
	return GenerateToken(SessionTokenBytes)
}
