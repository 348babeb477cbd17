package credstore

import (
	"context"

	"utec-gateway/internal/crypto"
)

// Store persists the gateway credential across restarts.
//
// Load returns (nil, nil) when no credential has been saved yet. Save
// overwrites any previous credential; durability is best-effort and callers
// decide whether a failed save is fatal.
type Store interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
}

// EncryptedStore decorates a Store, encrypting the sensitive credential
// fields before they reach the backend and decrypting them on the way out.
// The client id and expiry stay in the clear so operators can inspect them.
type EncryptedStore struct {
	inner Store
	box   *crypto.SecretBox
}

// NewEncryptedStore wraps a store with field-level encryption.
func NewEncryptedStore(inner Store, box *crypto.SecretBox) *EncryptedStore {
	return &EncryptedStore{inner: inner, box: box}
}

// Load reads from the backend and decrypts the sensitive fields.
func (s *EncryptedStore) Load(ctx context.Context) (*Credential, error) {
	cred, err := s.inner.Load(ctx)
	if err != nil || cred == nil {
		return cred, err
	}

	if cred.AccessToken, err = s.box.Decrypt(cred.AccessToken); err != nil {
		return nil, err
	}
	if cred.RefreshToken, err = s.box.Decrypt(cred.RefreshToken); err != nil {
		return nil, err
	}
	if cred.ClientSecret, err = s.box.Decrypt(cred.ClientSecret); err != nil {
		return nil, err
	}
	return cred, nil
}

// Save encrypts the sensitive fields and writes to the backend. The caller's
// credential is not modified.
func (s *EncryptedStore) Save(ctx context.Context, cred *Credential) error {
	sealed := cred.Clone()

	var err error
	if sealed.AccessToken, err = s.box.Encrypt(cred.AccessToken); err != nil {
		return err
	}
	if sealed.RefreshToken, err = s.box.Encrypt(cred.RefreshToken); err != nil {
		return err
	}
	if sealed.ClientSecret, err = s.box.Encrypt(cred.ClientSecret); err != nil {
		return err
	}
	return s.inner.Save(ctx, sealed)
}
