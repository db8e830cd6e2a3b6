package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
	"github.com/birdeye-app/birdeye/internal/photo"
)

// Session is one user's working set: its own cache and the latest batch.
type Session struct {
	ID      string
	Created time.Time
	cache   *Cache

	mu     sync.Mutex
	latest *BatchResult
}

// Cache returns the session's identification cache.
func (s *Session) Cache() *Cache {
	return s.cache
}

// Latest returns the most recent batch, or nil.
func (s *Session) Latest() *BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Session) setLatest(b *BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
}

// Manager owns the live sessions. Sessions never share caches.
type Manager struct {
	pipeline *Pipeline
	log      logger.Logger
	metrics  *metrics.PipelineMetrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager running batches through p.
func NewManager(p *Pipeline, log logger.Logger, m *metrics.PipelineMetrics) *Manager {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	return &Manager{pipeline: p, log: log, metrics: m, sessions: make(map[string]*Session)}
}

// Create starts a new session with an empty cache.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:      uuid.NewString(),
		Created: time.Now(),
		cache:   NewCache(m.metrics),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.log.Debug("session created", logger.String("session_id", s.ID))
	return s
}

// Get looks up a session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Reset drops a session and invalidates its cache. It reports whether the
// session existed.
func (m *Manager) Reset(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.cache.Reset()
	m.metrics.SetActiveSessions(n)
	m.log.Debug("session reset", logger.String("session_id", id))
	return true
}

// MaxPhotos returns the batch cap of the pipeline.
func (m *Manager) MaxPhotos() int {
	return m.pipeline.MaxPhotos()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Process runs a batch in the session and remembers it as the latest.
// Every log line of the batch carries the session id as trace id.
func (m *Manager) Process(ctx context.Context, s *Session, inputs []photo.Input) (*BatchResult, error) {
	ctx = logger.WithTraceID(ctx, s.ID)
	batch, err := m.pipeline.Run(ctx, s.cache, inputs)
	if err != nil {
		return nil, err
	}
	s.setLatest(batch)
	return batch, nil
}
