package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nrednav/authkit"
)

const defaultRedisTimeout = 5 * time.Second

// RedisStore persists credential state as a JSON value under a single
// Redis key. The engine calls Load and Save synchronously and without a
// context, so each operation runs under the store's own timeout.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisStore returns a store writing to key on client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     key,
		timeout: defaultRedisTimeout,
	}
}

// Load fetches and decodes the state value. A missing key is empty
// state.
func (s *RedisStore) Load() (authkit.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return authkit.State{}, nil
		}
		return authkit.State{}, fmt.Errorf("read state key: %w", err)
	}

	var state authkit.State
	if err := json.Unmarshal(data, &state); err != nil {
		return authkit.State{}, fmt.Errorf("decode state key: %w", err)
	}
	return state, nil
}

// Save encodes state and overwrites the key. The value carries no
// expiry; credential state does not age out.
func (s *RedisStore) Save(state authkit.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write state key: %w", err)
	}
	return nil
}
