// Package crypto provides AES-256-GCM encryption for credential material
// persisted by the gateway (refresh tokens, client secrets).
//
// Each encryption uses a random nonce, so encrypting the same plaintext twice
// produces different ciphertexts. The key is derived with PBKDF2 so any
// passphrase length yields a valid AES-256 key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"utec-gateway/internal/common/errors"
)

// SecretBox encrypts and decrypts credential fields at rest.
// It is safe for concurrent use.
type SecretBox struct {
	key []byte
}

// NewSecretBox creates a SecretBox from a passphrase. The passphrase is run
// through PBKDF2 to derive the 32-byte AES key.
func NewSecretBox(passphrase string) (*SecretBox, error) {
	if passphrase == "" {
		return nil, errors.ValidationError("encryption key cannot be empty")
	}

	// Static salt keeps derivation deterministic across restarts.
	salt := []byte("utec-gateway-credstore")
	key := pbkdf2.Key([]byte(passphrase), salt, 10000, 32, sha256.New)

	return &SecretBox{key: key}, nil
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext).
// Empty input passes through as an empty string.
func (s *SecretBox) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", errors.InternalError("failed to create cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.InternalError("failed to create GCM", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.InternalError("failed to create nonce", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input fails the GCM
// integrity check and returns an error.
func (s *SecretBox) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.InternalError("failed to decode ciphertext", err)
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", errors.InternalError("failed to create cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.InternalError("failed to create GCM", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.ValidationError("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.InternalError("failed to decrypt", err)
	}

	return string(plaintext), nil
}
