package domain

import "time"

// APIKey is a shared-secret credential with its own expiration window.
// Only the Argon2id hash of the secret is stored; the raw secret is shown
// once at mint time.
type APIKey struct {
	ID         string
	Name       string
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the key is past its expiration window.
func (k APIKey) Expired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}
