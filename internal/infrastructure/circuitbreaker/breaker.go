package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings configures a breaker.
type Settings struct {
	Name string

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts; 0 never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32

	OnStateChange func(name string, from, to string)
}

// DefaultSettings returns the defaults used for provider and HTTP breakers.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// IsCircuitOpen reports whether err was returned because the breaker is open.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsTooManyRequests reports whether err was returned by a saturated half-open breaker.
func IsTooManyRequests(err error) bool {
	return errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Breaker wraps a gobreaker.CircuitBreaker with context-aware helpers.
type Breaker struct {
	cb  *gobreaker.CircuitBreaker
	log *zap.Logger
}

// New creates a breaker. Zero fields in settings take DefaultSettings values.
func New(settings Settings, log *zap.Logger) *Breaker {
	d := DefaultSettings()
	if settings.MaxRequests == 0 {
		settings.MaxRequests = d.MaxRequests
	}
	if settings.Timeout == 0 {
		settings.Timeout = d.Timeout
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = d.FailureThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	threshold := settings.FailureThreshold
	onChange := settings.OnStateChange

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if onChange != nil {
				onChange(name, from.String(), to.String())
			}
		},
	})
	return &Breaker{cb: cb, log: log}
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}

func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

// Execute runs fn through the breaker. A cancelled context is not counted
// against the backend.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := b.ExecuteCtx(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// ExecuteCtx runs fn through the breaker and returns its value.
func (b *Breaker) ExecuteCtx(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
}

// Manager hands out one breaker per name.
type Manager struct {
	breakers map[string]*Breaker
	settings Settings
	mu       sync.RWMutex
	log      *zap.Logger
}

// NewManager creates a manager whose breakers share settings.
func NewManager(settings Settings, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		breakers: make(map[string]*Breaker),
		settings: settings,
		log:      log,
	}
}

// Get returns the breaker for name, creating it on first use.
func (m *Manager) Get(name string) *Breaker {
	m.mu.RLock()
	b, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok = m.breakers[name]; ok {
		return b
	}
	s := m.settings
	s.Name = name
	b = New(s, m.log)
	m.breakers[name] = b
	return b
}

// BreakerStatus is a point-in-time view of one breaker.
type BreakerStatus struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// Status returns every breaker's state.
func (m *Manager) Status() map[string]BreakerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]BreakerStatus, len(m.breakers))
	for name, b := range m.breakers {
		c := b.Counts()
		out[name] = BreakerStatus{
			Name:                name,
			State:               b.State(),
			Requests:            c.Requests,
			ConsecutiveFailures: c.ConsecutiveFailures,
		}
	}
	return out
}
