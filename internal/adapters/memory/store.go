// Package memory provides the in-memory session store, the default driver
// for single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Wyvern137/hackathon/internal/metrics"
	"github.com/Wyvern137/hackathon/pkg/domain"
)

// Store implements ports.SessionStore in memory. Safe for concurrent use.
// Sessions idle beyond the configured horizon are evicted lazily on access
// and by RunEviction.
type Store struct {
	mu      sync.RWMutex
	data    map[string]*domain.Session
	idleTTL time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures the store.
type Option func(*Store)

// WithIdleTTL sets the idle horizon after which sessions are evicted.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.idleTTL = ttl
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMetrics wires the Prometheus collectors. The engine counts a session
// into the active gauge when a flow claims it; the store counts it back
// out when eviction drops the session behind the engine's back.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an in-memory session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:    make(map[string]*domain.Session),
		idleTTL: 24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns an isolated copy of the user's session, creating an empty one
// if absent or expired.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.data[userID]
	s.mu.RUnlock()

	if ok && !s.expired(sess) {
		return sess.Clone(), nil
	}
	return domain.NewSession(userID), nil
}

// Save stores an isolated copy of the session and refreshes its idle clock.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	cp := sess.Clone()
	cp.LastSeen = s.now()

	s.mu.Lock()
	// Overwriting an expired active entry retires it the same way a sweep
	// would, so the gauge does not drift.
	if old, ok := s.data[cp.UserID]; ok && s.metrics != nil && old.Active && s.expired(old) {
		s.metrics.ActiveSessions.Dec()
	}
	s.data[cp.UserID] = cp
	s.mu.Unlock()
	return nil
}

// Clear resets the user's session to the empty state.
func (s *Store) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.data, userID)
	s.mu.Unlock()
	return nil
}

// IsActive reports whether a live session has a flow owning the user's input.
func (s *Store) IsActive(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	sess, ok := s.data[userID]
	s.mu.RUnlock()

	if !ok || s.expired(sess) {
		return false, nil
	}
	return sess.Active, nil
}

// EvictIdle removes all sessions idle beyond the horizon and returns how
// many were dropped.
func (s *Store) EvictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.data {
		if s.expired(sess) {
			if s.metrics != nil && sess.Active {
				s.metrics.ActiveSessions.Dec()
			}
			delete(s.data, id)
			n++
		}
	}
	return n
}

// RunEviction periodically evicts idle sessions until ctx is done.
func (s *Store) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

func (s *Store) expired(sess *domain.Session) bool {
	return s.idleTTL > 0 && s.now().Sub(sess.LastSeen) > s.idleTTL
}
