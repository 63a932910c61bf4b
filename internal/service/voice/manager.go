package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/observability/telemetry"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

const (
	// EventSessionState is broadcast on every session transition.
	EventSessionState = "session.state"
	// EventVoiceResponse is broadcast after each processed transcript.
	EventVoiceResponse = "voice.response"
	// EventNavigate carries navigate actions to connected clients.
	EventNavigate = "voice.navigate"

	// SubjectEvents is the audit stream of processed commands.
	SubjectEvents = "voice.events"

	profileKeyPrefix  = "business:"
	defaultProfileTTL = 24 * time.Hour
)

// ManagerOptions wires optional collaborators. Any of them may be nil.
type ManagerOptions struct {
	Cache       ports.Cache
	Queue       ports.MessageQueue
	Broadcaster ports.Broadcaster
	ProfileTTL  time.Duration
	// IdleTimeout evicts sessions with no activity for that long. 0 keeps them.
	IdleTimeout time.Duration
	// MaxSessions caps the map; the least recently active idle session makes
	// room for a new one. 0 means no cap.
	MaxSessions int
}

// AuditEvent is published to SubjectEvents for every processed transcript.
type AuditEvent struct {
	SessionID string              `json:"session_id"`
	Entry     domain.HistoryEntry `json:"entry"`
}

// SessionManager owns sessions keyed by id. Business profiles are persisted
// through the cache so a session recreated after restart keeps its profile.
type SessionManager struct {
	deps     Dependencies
	cfg      Config
	business domain.BusinessContext
	opts     ManagerOptions
	log      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	defaultsOnce sync.Once
	defaults     *Assistant

	stopCh    chan struct{}
	closeOnce sync.Once
}

func NewSessionManager(cfg Config, business domain.BusinessContext, deps Dependencies, opts ManagerOptions) *SessionManager {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	deps.Log = log
	if opts.ProfileTTL <= 0 {
		opts.ProfileTTL = defaultProfileTTL
	}
	return &SessionManager{
		deps:     deps,
		cfg:      cfg,
		business: business.Clone(),
		opts:     opts,
		log:      log,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// Get returns an existing session.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it when absent. An empty id
// gets a fresh uuid.
func (m *SessionManager) GetOrCreate(ctx context.Context, id string) *Session {
	if id != "" {
		if s, ok := m.Get(id); ok {
			s.touch()
			return s
		}
	} else {
		id = uuid.NewString()
	}

	business := m.loadProfile(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch()
		return s
	}
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.evictOldestLocked()
	}
	s := newSession(id, NewAssistant(m.cfg, business, m.deps), m.log)
	s.onChange = m.stateChanged
	s.onResult = m.recorded
	m.sessions[id] = s
	telemetry.ActiveSessions.Set(float64(len(m.sessions)))

	m.log.Info("Session created", zap.String("session_id", id))
	return s
}

// Remove drops a session. Its persisted profile is kept.
func (m *SessionManager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	telemetry.ActiveSessions.Set(float64(len(m.sessions)))
	return true
}

// Defaults returns a session-less assistant with the base profile and
// config. Read-only callers that do not name a session use it.
func (m *SessionManager) Defaults() *Assistant {
	m.defaultsOnce.Do(func() {
		m.defaults = NewAssistant(m.cfg, m.business, m.deps)
	})
	return m.defaults
}

// EvictIdle removes sessions inactive since now minus IdleTimeout. Sessions
// still processing a transcript are kept.
func (m *SessionManager) EvictIdle(now time.Time) int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		telemetry.ActiveSessions.Set(float64(len(m.sessions)))
		m.log.Debug("Idle sessions evicted", zap.Int("evicted", evicted), zap.Int("remaining", len(m.sessions)))
	}
	return evicted
}

// evictOldestLocked drops the least recently active session that is not
// processing. Callers hold m.mu.
func (m *SessionManager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range m.sessions {
		if s.State() == domain.SessionProcessing {
			continue
		}
		if at := s.LastActive(); oldestID == "" || at.Before(oldest) {
			oldestID, oldest = id, at
		}
	}
	if oldestID == "" {
		return
	}
	delete(m.sessions, oldestID)
	m.log.Info("Session evicted to make room", zap.String("session_id", oldestID))
}

// StartSweeper evicts idle sessions every interval until Close. It does
// nothing when IdleTimeout is 0.
func (m *SessionManager) StartSweeper(interval time.Duration) {
	if m.opts.IdleTimeout <= 0 {
		return
	}
	if interval <= 0 {
		interval = m.opts.IdleTimeout / 2
	}
	go m.sweepLoop(interval)
	m.log.Info("Session sweeper started",
		zap.Duration("interval", interval),
		zap.Duration("idle_timeout", m.opts.IdleTimeout),
	)
}

func (m *SessionManager) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			m.EvictIdle(now)
		case <-m.stopCh:
			return
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() { close(m.stopCh) })
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// UpdateBusinessContext patches a session's profile and persists it.
func (m *SessionManager) UpdateBusinessContext(ctx context.Context, s *Session, p domain.BusinessContextPatch) (domain.BusinessContext, error) {
	business := s.assistant.UpdateBusinessContext(p)
	if err := m.saveProfile(ctx, s.ID, business); err != nil {
		return business, err
	}
	return business, nil
}

func (m *SessionManager) loadProfile(ctx context.Context, id string) domain.BusinessContext {
	if m.opts.Cache == nil {
		return m.business.Clone()
	}
	start := time.Now()
	raw, err := m.opts.Cache.Get(ctx, profileKeyPrefix+id)
	telemetry.CacheLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			m.log.Warn("Failed to load business profile", zap.String("session_id", id), zap.Error(err))
		}
		return m.business.Clone()
	}
	var business domain.BusinessContext
	if err := json.Unmarshal([]byte(raw), &business); err != nil {
		m.log.Warn("Discarding corrupt business profile", zap.String("session_id", id), zap.Error(err))
		return m.business.Clone()
	}
	return business
}

func (m *SessionManager) saveProfile(ctx context.Context, id string, business domain.BusinessContext) error {
	if m.opts.Cache == nil {
		return nil
	}
	data, err := json.Marshal(business)
	if err != nil {
		return fmt.Errorf("marshal business profile: %w", err)
	}
	start := time.Now()
	err = m.opts.Cache.Set(ctx, profileKeyPrefix+id, string(data), m.opts.ProfileTTL)
	telemetry.CacheLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("save business profile: %w", err)
	}
	return nil
}

func (m *SessionManager) stateChanged(c StateChange) {
	if m.opts.Broadcaster != nil {
		m.opts.Broadcaster.Broadcast(EventSessionState, c)
	}
}

func (m *SessionManager) recorded(s *Session, entry domain.HistoryEntry) {
	if m.opts.Broadcaster != nil {
		m.opts.Broadcaster.Broadcast(EventVoiceResponse, map[string]interface{}{
			"session_id": s.ID,
			"response":   entry.Response,
		})
		for _, action := range entry.Response.Actions {
			if action.Kind == domain.ActionNavigate {
				m.opts.Broadcaster.Broadcast(EventNavigate, map[string]interface{}{
					"session_id": s.ID,
					"route":      action.Route,
					"label":      action.Label,
				})
			}
		}
	}

	if m.opts.Queue == nil {
		return
	}
	data, err := json.Marshal(AuditEvent{SessionID: s.ID, Entry: entry})
	if err != nil {
		m.log.Error("Failed to encode audit event", zap.Error(err))
		return
	}
	if err := m.opts.Queue.Publish(SubjectEvents, data); err != nil {
		m.log.Warn("Failed to publish audit event",
			zap.String("session_id", s.ID),
			zap.String("subject", SubjectEvents),
			zap.Error(err),
		)
	}
}
