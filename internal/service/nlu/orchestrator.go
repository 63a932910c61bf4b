package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/observability/telemetry"
)

// Options tune the orchestrator. Timeout applies to each attempt.
type Options struct {
	ConfidenceThreshold float64
	Timeout             time.Duration
	// Cooldown is how long an error flag sticks; 0 keeps it until reset.
	Cooldown time.Duration
	// RetryAttempts is handed to providers through Request.
	RetryAttempts int
}

// ProviderState is one entry of the status cache.
type ProviderState struct {
	ID     domain.ProviderID     `json:"id"`
	Status domain.ProviderStatus `json:"status"`
	Reason string                `json:"reason,omitempty"`
	Since  time.Time             `json:"since,omitempty"`
}

type statusEntry struct {
	status domain.ProviderStatus
	reason string
	since  time.Time
}

type attemptResult struct {
	interp Interpretation
	err    error
}

// Orchestrator tries providers in order until one answers confidently.
// The keyword provider is always last and always answers.
type Orchestrator struct {
	providers []Provider
	log       *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	opts   Options
	status map[domain.ProviderID]statusEntry
}

// NewOrchestrator builds the chain. A keyword provider is appended when the
// list has none; one already present is moved to the end.
func NewOrchestrator(providers []Provider, opts Options, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}

	var terminal Provider
	chain := make([]Provider, 0, len(providers)+1)
	for _, p := range providers {
		if p == nil {
			continue
		}
		if p.ID() == domain.ProviderKeywords {
			if terminal == nil {
				terminal = p
			}
			continue
		}
		chain = append(chain, p)
	}
	if terminal == nil {
		terminal = NewKeywordProvider(nil)
	}
	chain = append(chain, terminal)

	return &Orchestrator{
		providers: chain,
		log:       log,
		now:       time.Now,
		opts:      normalizeOptions(opts),
		status:    make(map[domain.ProviderID]statusEntry),
	}
}

func normalizeOptions(o Options) Options {
	if o.ConfidenceThreshold < 0 {
		o.ConfidenceThreshold = 0
	}
	if o.ConfidenceThreshold > 1 {
		o.ConfidenceThreshold = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Cooldown < 0 {
		o.Cooldown = 0
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	return o
}

// SetOptions replaces the options for subsequent calls.
func (o *Orchestrator) SetOptions(opts Options) {
	o.mu.Lock()
	o.opts = normalizeOptions(opts)
	o.mu.Unlock()
}

func (o *Orchestrator) Options() Options {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts
}

// Providers returns the chain order.
func (o *Orchestrator) Providers() []domain.ProviderID {
	ids := make([]domain.ProviderID, len(o.providers))
	for i, p := range o.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Parse interprets req.Text. It always returns a command, with confidence in
// [0,1] and a non-empty intent.
func (o *Orchestrator) Parse(ctx context.Context, req Request) domain.VoiceCommand {
	ctx, span := telemetry.StartSpan(ctx, "nlu.Parse")
	defer span.End()

	opts := o.Options()
	req.RetryAttempts = opts.RetryAttempts

	for _, p := range o.providers {
		id := p.ID()
		terminal := id == domain.ProviderKeywords

		if !terminal {
			if ctx.Err() != nil {
				continue
			}
			if o.flagged(id) {
				telemetry.ProviderAttemptsTotal.WithLabelValues(string(id), "skipped").Inc()
				continue
			}
		}

		start := time.Now()
		interp, err := o.attempt(ctx, p, req, opts.Timeout, terminal)
		telemetry.ProviderLatency.WithLabelValues(string(id)).Observe(time.Since(start).Seconds())

		if err == nil && !terminal && interp.Confidence < opts.ConfidenceThreshold {
			err = fmt.Errorf("%w: %.2f < %.2f", ErrLowConfidence, interp.Confidence, opts.ConfidenceThreshold)
		}

		if err != nil {
			outcome := "error"
			switch {
			case errors.Is(err, ErrProviderTimeout):
				outcome = "timeout"
			case errors.Is(err, ErrLowConfidence):
				outcome = "low_confidence"
			}
			telemetry.ProviderAttemptsTotal.WithLabelValues(string(id), outcome).Inc()

			// A caller that gave up is not the provider's fault.
			if ctx.Err() == nil {
				o.markError(id, err)
			}
			o.log.Warn("Provider attempt failed",
				zap.String("provider", string(id)),
				zap.String("reason", outcome),
				zap.Error(err),
			)
			if terminal {
				break
			}
			continue
		}

		telemetry.ProviderAttemptsTotal.WithLabelValues(string(id), "success").Inc()
		o.markAvailable(id)
		span.SetAttributes(
			attribute.String("nlu.provider", string(id)),
			attribute.String("nlu.intent", interp.Intent),
		)
		return o.command(req, id, interp)
	}

	span.SetStatus(codes.Error, "no provider answered")
	return o.command(req, domain.ProviderKeywords, Interpretation{Intent: domain.IntentUnknown})
}

func (o *Orchestrator) attempt(ctx context.Context, p Provider, req Request, timeout time.Duration, terminal bool) (Interpretation, error) {
	if terminal {
		// The keyword provider is local and runs to completion even when the
		// caller's context is already done.
		ctx = context.WithoutCancel(ctx)
	}

	ctx, span := telemetry.StartSpan(ctx, "nlu.provider."+string(p.ID()))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- attemptResult{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		interp, err := p.Interpret(ctx, req)
		ch <- attemptResult{interp: interp, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			span.RecordError(r.err)
			span.SetStatus(codes.Error, r.err.Error())
		}
		return r.interp, r.err
	case <-ctx.Done():
		span.SetStatus(codes.Error, "timeout")
		return Interpretation{}, fmt.Errorf("%w after %s", ErrProviderTimeout, timeout)
	}
}

func (o *Orchestrator) command(req Request, id domain.ProviderID, interp Interpretation) domain.VoiceCommand {
	intent := strings.TrimSpace(interp.Intent)
	if intent == "" {
		intent = domain.IntentUnknown
	}

	entities := make(map[string]domain.Entity, len(interp.Entities)+len(req.Entities))
	for k, e := range interp.Entities {
		entities[k] = e
	}
	// Extractor results win over provider guesses for the same slot.
	for k, e := range req.Entities {
		entities[k] = e
	}

	return domain.VoiceCommand{
		ID:         uuid.NewString(),
		Intent:     intent,
		Entities:   entities,
		Confidence: clamp01(interp.Confidence),
		RawText:    req.Text,
		Timestamp:  o.now().UTC(),
		Provider:   id,
	}
}

func (o *Orchestrator) flagged(id domain.ProviderID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.status[id]
	if !ok || e.status != domain.ProviderStatusError {
		return false
	}
	return !o.expired(e)
}

func (o *Orchestrator) expired(e statusEntry) bool {
	return o.opts.Cooldown > 0 && o.now().Sub(e.since) >= o.opts.Cooldown
}

func (o *Orchestrator) markError(id domain.ProviderID, err error) {
	o.mu.Lock()
	o.status[id] = statusEntry{status: domain.ProviderStatusError, reason: err.Error(), since: o.now()}
	o.mu.Unlock()
}

func (o *Orchestrator) markAvailable(id domain.ProviderID) {
	o.mu.Lock()
	o.status[id] = statusEntry{status: domain.ProviderStatusAvailable, since: o.now()}
	o.mu.Unlock()
}

// Snapshot returns a copy of the status cache. Providers never attempted, and
// errors past their cooldown, read as available.
func (o *Orchestrator) Snapshot() map[domain.ProviderID]domain.ProviderStatus {
	states := o.States()
	out := make(map[domain.ProviderID]domain.ProviderStatus, len(states))
	for _, s := range states {
		out[s.ID] = s.Status
	}
	return out
}

// States returns the status cache in chain order.
func (o *Orchestrator) States() []ProviderState {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]ProviderState, 0, len(o.providers))
	for _, p := range o.providers {
		id := p.ID()
		st := ProviderState{ID: id, Status: domain.ProviderStatusAvailable}
		if e, ok := o.status[id]; ok {
			st.Since = e.since
			if e.status == domain.ProviderStatusError && !o.expired(e) {
				st.Status = domain.ProviderStatusError
				st.Reason = e.reason
			}
		}
		out = append(out, st)
	}
	return out
}

// ResetProviderStatus clears every error flag.
func (o *Orchestrator) ResetProviderStatus() {
	o.mu.Lock()
	o.status = make(map[domain.ProviderID]statusEntry)
	o.mu.Unlock()
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
