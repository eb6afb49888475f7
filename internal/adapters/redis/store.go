// Package redis provides the Redis-backed session store driver.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/Wyvern137/hackathon/pkg/domain"
)

// Store implements ports.SessionStore using Redis. Idle eviction is
// delegated to Redis key TTLs; the ZSET index allows listing and lazy
// cleanup of stragglers.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithTTL sets the idle expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(addr, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "smmbot:session:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Get returns the user's session, creating an empty one if absent.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.NewSession(userID), nil
		}
		return nil, fmt.Errorf("get session from redis: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save persists the session with the idle TTL and refreshes the index.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	cp := sess.Clone()
	cp.LastSeen = time.Now()

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(cp.UserID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(cp.LastSeen.Add(s.ttl).Unix()),
		Member: cp.UserID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

// Clear removes the session.
func (s *Store) Clear(ctx context.Context, userID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.ZRem(ctx, s.indexKey(), userID)
	_, err := pipe.Exec(ctx)
	return err
}

// IsActive reports whether a flow owns the user's input.
func (s *Store) IsActive(ctx context.Context, userID string) (bool, error) {
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sess.Active, nil
}

// List returns known user ids after pruning expired index entries.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("prune expired sessions: %w", err)
	}

	users, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return users, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
