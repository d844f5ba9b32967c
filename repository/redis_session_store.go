package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scdb-dashboard/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "scdb:session:"

// RedisSessionStore keeps sessions in Redis so several server instances can
// share them. Expiry is left to Redis key TTLs, refreshed on every Load.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to the Redis server at url (redis://...)
func NewRedisSessionStore(ctx context.Context, url string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

// expiration maps a non-positive ttl to "no expiry"
func (s *RedisSessionStore) expiration() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	return s.ttl
}

// Save creates or replaces a session
func (s *RedisSessionStore) Save(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.expiration()).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns a live session and refreshes its expiry
func (s *RedisSessionStore) Load(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var data []byte
	var err error
	if s.ttl > 0 {
		data, err = s.client.GetEx(ctx, sessionKey(id), s.ttl).Bytes()
	} else {
		data, err = s.client.Get(ctx, sessionKey(id)).Bytes()
	}
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := &models.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	sess.UpdatedAt = time.Now()
	return sess, nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Len counts stored sessions
func (s *RedisSessionStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

// Close closes the Redis connection
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
