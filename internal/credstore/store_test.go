package credstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utec-gateway/internal/crypto"
)

func sampleCredential() *Credential {
	exp := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return &Credential{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		ExpiresAt:    &exp,
	}
}

func assertRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "empty store should load nil")

	cred := sampleCredential()
	require.NoError(t, store.Save(ctx, cred))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cred.AccessToken, loaded.AccessToken)
	assert.Equal(t, cred.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, cred.ClientID, loaded.ClientID)
	assert.True(t, cred.ExpiresAt.Equal(*loaded.ExpiresAt))

	// Overwrite
	cred.AccessToken = "rotated"
	require.NoError(t, store.Save(ctx, cred))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated", loaded.AccessToken)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "credential.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	assertRoundTrip(t, store)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	defer store.Close()

	assertRoundTrip(t, store)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	assertRoundTrip(t, NewRedisStore(client))
}

func TestEncryptedStore_SecretsNotInClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	inner, err := NewFileStore(path)
	require.NoError(t, err)

	box, err := crypto.NewSecretBox("test-passphrase")
	require.NoError(t, err)

	store := NewEncryptedStore(inner, box)
	assertRoundTrip(t, store)

	// The raw file must not contain the plaintext secrets.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "rotated")
	assert.NotContains(t, string(raw), "refresh-456")
	assert.NotContains(t, string(raw), "client-secret")
	assert.Contains(t, string(raw), "client-id", "client id stays readable")

	var onDisk Credential
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.NotEmpty(t, onDisk.RefreshToken)
}

func TestEncryptedStore_DoesNotMutateCaller(t *testing.T) {
	inner, err := NewFileStore(filepath.Join(t.TempDir(), "credential.json"))
	require.NoError(t, err)
	box, err := crypto.NewSecretBox("test-passphrase")
	require.NoError(t, err)

	store := NewEncryptedStore(inner, box)
	cred := sampleCredential()
	require.NoError(t, store.Save(context.Background(), cred))

	assert.Equal(t, "access-123", cred.AccessToken, "caller credential must stay plaintext")
}
