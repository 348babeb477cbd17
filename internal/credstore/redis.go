package credstore

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

// RedisStore persists the credential in Redis, for deployments that want
// gateway state to survive container rebuilds without a local volume.
// The credential has no TTL; it lives until replaced.
type RedisStore struct {
	client *goredis.Client
	key    string
}

// NewRedisStore creates a Redis-backed store using the given client.
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "utec:gateway:credential",
	}
}

// Load reads the stored credential, returning (nil, nil) when absent.
func (s *RedisStore) Load(ctx context.Context) (*Credential, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return &cred, nil
}

// Save writes the credential as JSON.
func (s *RedisStore) Save(ctx context.Context, cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}
