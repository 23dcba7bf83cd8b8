package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apierrors "mediamerge/internal/errors"
	"mediamerge/pkg/contracts/domain"
)

// Session is the state one client accumulates between requests: the
// benchmark table applied to its batches and the dataset of its last batch.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	lastSeen  time.Time
	benchmark *domain.BenchmarkTable
	result    *domain.BatchResult

	// batchMu serialises batches of the same session
	batchMu sync.Mutex
}

// Benchmark returns the loaded benchmark table, nil when none is loaded
func (s *Session) Benchmark() *domain.BenchmarkTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.benchmark
}

// SetBenchmark replaces the benchmark table. Callers only reach this after
// a successful load, so a rejected upload leaves the previous table active.
func (s *Session) SetBenchmark(table *domain.BenchmarkTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmark = table
}

// ClearBenchmark unloads the benchmark table
func (s *Session) ClearBenchmark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmark = nil
}

// SetResult stores the outcome of a batch that merged at least one table,
// replacing the previous dataset. Results without a dataset are ignored.
func (s *Session) SetResult(result *domain.BatchResult) {
	if result == nil || result.Dataset == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

// Result returns the latest batch result, nil before the first batch
func (s *Session) Result() *domain.BatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Dataset returns the merged dataset of the latest successful batch
func (s *Session) Dataset() *domain.MergedDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	return s.result.Dataset
}

// LastSeen reports when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Exclusive runs fn while holding the session's batch lock
func (s *Session) Exclusive(fn func() error) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return fn()
}

// Listener observes session lifecycle changes
type Listener interface {
	SessionOpened(ctx context.Context)
	SessionClosed(ctx context.Context)
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithListener registers a lifecycle listener
func WithListener(l Listener) Option {
	return func(s *Store) { s.listener = l }
}

// Store holds live sessions in memory. Sessions idle for longer than the
// TTL are removed by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	listener Listener
	logger   *slog.Logger
}

// NewStore creates an empty store
func NewStore(ttl time.Duration, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session_store")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new session with a fresh uuid
func (s *Store) Create(ctx context.Context) *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.SessionOpened(ctx)
	}
	s.logger.InfoContext(ctx, "session created", slog.String("session_id", sess.ID))
	return sess
}

// Get returns a session and marks it used
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, apierrors.ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Exists reports whether id names a live session
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Delete ends a session
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return apierrors.ErrSessionNotFound
	}
	if s.listener != nil {
		s.listener.SessionClosed(ctx)
	}
	s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", id))
	return nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed
func (s *Store) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		if s.listener != nil {
			s.listener.SessionClosed(ctx)
		}
		s.logger.InfoContext(ctx, "session expired", slog.String("session_id", id))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.logger.DebugContext(ctx, "session sweep", slog.Int("expired", n), slog.Int("live", s.Len()))
			}
		}
	}
}
