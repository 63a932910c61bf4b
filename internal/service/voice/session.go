package voice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/observability/telemetry"
)

// StateChange is published on every session transition.
type StateChange struct {
	SessionID string              `json:"session_id"`
	From      domain.SessionState `json:"from"`
	To        domain.SessionState `json:"to"`
	At        time.Time           `json:"at"`
}

// Session holds one user's assistant and history. At most one transcript is
// processed at a time; a transcript that arrives meanwhile is dropped.
type Session struct {
	ID        string
	assistant *Assistant
	log       *zap.Logger
	onChange  func(StateChange)
	onResult  func(*Session, domain.HistoryEntry)

	mu         sync.Mutex
	state      domain.SessionState
	history    []domain.HistoryEntry
	lastActive time.Time
}

func newSession(id string, assistant *Assistant, log *zap.Logger) *Session {
	return &Session{
		ID:        id,
		assistant: assistant,
		log:       log.With(zap.String("session_id", id)),
		state:      domain.SessionIdle,
		lastActive: time.Now(),
	}
}

func (s *Session) Assistant() *Assistant {
	return s.assistant
}

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive is the time of the last lookup, transition or transcript.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// idleSince reports whether the session has been inactive since cutoff and
// is not processing.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != domain.SessionProcessing && !s.lastActive.After(cutoff)
}

// History returns a copy of the recorded entries, oldest first.
func (s *Session) History() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistoryEntry(nil), s.history...)
}

// Listen moves Idle to Listening. It reports false, and changes nothing, in
// any other state.
func (s *Session) Listen() bool {
	s.mu.Lock()
	s.lastActive = time.Now()
	if s.state != domain.SessionIdle {
		s.mu.Unlock()
		return false
	}
	change := s.transition(domain.SessionListening)
	s.mu.Unlock()
	s.emit(change)
	return true
}

// Halt stops accepting input. A transcript already being processed finishes
// and its result is still recorded.
func (s *Session) Halt() {
	s.mu.Lock()
	s.lastActive = time.Now()
	if s.state != domain.SessionListening {
		s.mu.Unlock()
		return
	}
	change := s.transition(domain.SessionIdle)
	s.mu.Unlock()
	s.emit(change)
}

// Submit processes text. ok is false when another transcript is in flight.
// From Idle the session passes through Listening first.
func (s *Session) Submit(ctx context.Context, text string) (Result, bool) {
	var changes []StateChange

	s.mu.Lock()
	s.lastActive = time.Now()
	switch s.state {
	case domain.SessionProcessing:
		s.mu.Unlock()
		s.log.Debug("Transcript dropped, session busy")
		return Result{}, false
	case domain.SessionIdle:
		changes = append(changes, s.transition(domain.SessionListening))
	}
	changes = append(changes, s.transition(domain.SessionProcessing))
	s.mu.Unlock()
	s.emit(changes...)

	res := s.assistant.Process(ctx, text)
	entry := domain.HistoryEntry{
		Command:        res.Command,
		Classification: res.Classification,
		Response:       res.Response,
		RecordedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	s.history = append(s.history, entry)
	if limit := s.assistant.Config().HistoryLimit; limit > 0 && len(s.history) > limit {
		s.history = append([]domain.HistoryEntry(nil), s.history[len(s.history)-limit:]...)
	}
	s.lastActive = time.Now()
	done := s.transition(domain.SessionIdle)
	s.mu.Unlock()
	s.emit(done)

	if s.onResult != nil {
		s.onResult(s, entry)
	}
	return res, true
}

// transition must be called with s.mu held.
func (s *Session) transition(to domain.SessionState) StateChange {
	from := s.state
	s.state = to
	telemetry.SessionStateTransitions.WithLabelValues(string(to)).Inc()
	return StateChange{SessionID: s.ID, From: from, To: to, At: time.Now().UTC()}
}

func (s *Session) emit(changes ...StateChange) {
	for _, c := range changes {
		s.log.Debug("Session state changed",
			zap.String("from", string(c.From)),
			zap.String("to", string(c.To)),
		)
		if s.onChange != nil {
			s.onChange(c)
		}
	}
}
