package ws

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks the apiKey of a client's auth envelope. The key is
// held only as a bcrypt hash.
type Authenticator struct {
	hash []byte
}

// NewAuthenticator returns nil when apiKey is empty, meaning no auth is
// required.
func NewAuthenticator(apiKey string) (*Authenticator, error) {
	if apiKey == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash api key: %w", err)
	}
	return &Authenticator{hash: hash}, nil
}

// Required reports whether clients must authenticate. Safe on a nil receiver.
func (a *Authenticator) Required() bool {
	return a != nil
}

// Verify reports whether key matches the configured API key.
func (a *Authenticator) Verify(key string) bool {
	if a == nil {
		return true
	}
	if key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(key)) == nil
}
