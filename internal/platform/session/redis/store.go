package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/officehub/backend/internal/platform/session"
)

// Store is a Redis-backed session.Store. Each state value lives under its
// own key with a TTL; a per-session set tracks which keys a session holds.
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis session store and verifies connectivity.
func NewStore(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

func stateKey(sessionID, key string) string {
	return "officehub:session:" + sessionID + ":" + key
}

func indexKey(sessionID string) string {
	return "officehub:session-keys:" + sessionID
}

func (s *Store) Get(ctx context.Context, sessionID, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, stateKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *Store) Put(ctx context.Context, sessionID, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, stateKey(sessionID, key), data, ttl).Err(); err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, indexKey(sessionID), key)
	if ttl > 0 {
		pipe.Expire(ctx, indexKey(sessionID), ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Delete(ctx context.Context, sessionID, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, stateKey(sessionID, key))
	pipe.SRem(ctx, indexKey(sessionID), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Keys(ctx context.Context, sessionID string) ([]string, error) {
	keys, err := s.client.SMembers(ctx, indexKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return keys, err
}

var _ session.Store = (*Store)(nil)
