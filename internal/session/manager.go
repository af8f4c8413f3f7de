package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockwatch/internal/handoff"
	"stockwatch/internal/watchlist"
)

const defaultIdleTTL = 30 * time.Minute

// Session is one dashboard client: a view controller plus the bulk
// operation dispatcher bound to it.
type Session struct {
	ID         string
	Controller *watchlist.Controller
	Dispatcher *watchlist.Dispatcher
	CreatedAt  time.Time

	lastSeen time.Time
}

// Options configures the manager and the controllers it creates.
type Options struct {
	API        watchlist.API
	Handoff    handoff.Store
	HandoffTTL time.Duration
	Logger     *zap.Logger

	IdleTTL time.Duration

	DefaultPageSize     int
	MaxPageSize         int
	MaterializePageSize int
	MaterializeMaxPages int
	LoadTimeout         time.Duration
	RefreshEvery        time.Duration
}

// Manager owns all live sessions. Controllers it hands out are wired to
// its base context, so stopping the manager stops their refresh loops.
type Manager struct {
	opts    Options
	log     *zap.Logger
	baseCtx context.Context

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(ctx context.Context, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	return &Manager{
		opts:     opts,
		log:      log,
		baseCtx:  ctx,
		sessions: map[string]*Session{},
	}
}

// Open creates a session starting from the given criteria. refresh
// overrides the configured auto-refresh interval when non-nil; zero
// disables it for this session.
func (m *Manager) Open(criteria watchlist.Criteria, refresh *time.Duration) *Session {
	every := m.opts.RefreshEvery
	if refresh != nil {
		every = *refresh
	}
	id := uuid.NewString()
	ctrl := watchlist.NewController(m.baseCtx, watchlist.Options{
		API:                 m.opts.API,
		Logger:              m.log.With(zap.String("session_id", id)),
		Criteria:            criteria,
		DefaultPageSize:     m.opts.DefaultPageSize,
		MaxPageSize:         m.opts.MaxPageSize,
		MaterializePageSize: m.opts.MaterializePageSize,
		MaterializeMaxPages: m.opts.MaterializeMaxPages,
		LoadTimeout:         m.opts.LoadTimeout,
		RefreshEvery:        every,
	})
	now := time.Now()
	s := &Session{
		ID:         id,
		Controller: ctrl,
		Dispatcher: &watchlist.Dispatcher{
			API:        m.opts.API,
			Controller: ctrl,
			Handoff:    m.opts.Handoff,
			HandoffKey: handoff.Key(id),
			HandoffTTL: m.opts.HandoffTTL,
			Logger:     m.log.With(zap.String("session_id", id)),
		},
		CreatedAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	m.log.Info("session opened", zap.String("session_id", id))
	return s
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s, true
}

// Close tears the session down and forgets it.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Controller.Close()
	m.log.Info("session closed", zap.String("session_id", id))
	return true
}

// Sweep closes sessions that have not been touched within the idle TTL
// and reports how many it closed. The cron runner calls it periodically.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Controller.Close()
		m.log.Info("idle session swept", zap.String("session_id", s.ID))
	}
	return len(idle)
}

// CloseAll tears down every session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range all {
		s.Controller.Close()
	}
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
