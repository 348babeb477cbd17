// Package credstore holds the gateway's single OAuth2 credential and its
// persistence backends. Exactly one credential exists per gateway instance;
// it is mutated only by the token lifecycle manager and persisted after
// every successful refresh or exchange.
package credstore

import (
	"time"
)

// DefaultRefreshBuffer is how long before expiry a token is treated as
// expired, so refreshes happen ahead of actual expiration.
const DefaultRefreshBuffer = 5 * time.Minute

// Credential is the gateway's OAuth2 state. ExpiresAt is nil when no token
// has been obtained or the vendor never reported a lifetime; a nil expiry is
// treated the same as an expired token, since both require a refresh before
// use.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// RefreshBuffer overrides DefaultRefreshBuffer when positive.
	RefreshBuffer time.Duration `json:"refresh_buffer,omitempty"`
}

// Buffer returns the effective refresh buffer.
func (c *Credential) Buffer() time.Duration {
	if c.RefreshBuffer > 0 {
		return c.RefreshBuffer
	}
	return DefaultRefreshBuffer
}

// Expired reports whether the token needs a refresh before use at the given
// instant: true when no expiry is recorded, or when now plus the refresh
// buffer has reached the expiry.
func (c *Credential) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Add(c.Buffer()).Before(*c.ExpiresAt)
}

// Clone returns a deep copy, so callers can hold a snapshot while the
// manager mutates the live credential.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ExpiresAt != nil {
		exp := *c.ExpiresAt
		cp.ExpiresAt = &exp
	}
	return &cp
}
