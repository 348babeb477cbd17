package crypto

import (
	"strings"
	"testing"
)

func TestSecretBox_RoundTrip(t *testing.T) {
	box, err := NewSecretBox("a-reasonably-long-passphrase")
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}

	plaintext := "refresh-token-value-123"
	encrypted, err := box.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if encrypted == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := box.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("got %q, want %q", decrypted, plaintext)
	}
}

func TestSecretBox_EmptyPassphrase(t *testing.T) {
	if _, err := NewSecretBox(""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}

func TestSecretBox_EmptyValuesPassThrough(t *testing.T) {
	box, _ := NewSecretBox("key")

	enc, err := box.Encrypt("")
	if err != nil || enc != "" {
		t.Errorf("Encrypt(\"\") = %q, %v", enc, err)
	}
	dec, err := box.Decrypt("")
	if err != nil || dec != "" {
		t.Errorf("Decrypt(\"\") = %q, %v", dec, err)
	}
}

func TestSecretBox_UniqueNonce(t *testing.T) {
	box, _ := NewSecretBox("key")

	a, _ := box.Encrypt("same input")
	b, _ := box.Encrypt("same input")
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestSecretBox_WrongKey(t *testing.T) {
	box1, _ := NewSecretBox("key-one")
	box2, _ := NewSecretBox("key-two")

	encrypted, _ := box1.Encrypt("secret")
	if _, err := box2.Decrypt(encrypted); err == nil {
		t.Error("expected decryption with wrong key to fail")
	}
}

func TestSecretBox_TamperedCiphertext(t *testing.T) {
	box, _ := NewSecretBox("key")

	if _, err := box.Decrypt("dG9vc2hvcnQ="); err == nil {
		t.Error("expected short ciphertext to fail")
	}
	if _, err := box.Decrypt(strings.Repeat("!", 40)); err == nil {
		t.Error("expected invalid base64 to fail")
	}
}
