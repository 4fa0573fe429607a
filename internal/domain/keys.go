package domain

import (
	"crypto/rand"
	"encoding/base64"
)

// NewRandomKey generates a cryptographically secure random key string, used
// for activation keys, reset keys and generated initial passwords.
func NewRandomKey() (string, error) {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
