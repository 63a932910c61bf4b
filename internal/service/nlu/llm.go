package nlu

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

const defaultRetryDelay = 200 * time.Millisecond

// LLMProvider adapts a language model client to the Provider interface.
// Malformed responses count as failures against the breaker.
type LLMProvider struct {
	id         domain.ProviderID
	model      ports.LanguageModel
	breaker    *circuitbreaker.Breaker
	retries    int
	retryDelay time.Duration
	log        *zap.Logger
}

// LLMOption configures an LLMProvider.
type LLMOption func(*LLMProvider)

// WithBreaker routes every call through b.
func WithBreaker(b *circuitbreaker.Breaker) LLMOption {
	return func(p *LLMProvider) { p.breaker = b }
}

// WithRetries retries failed calls n times, starting at delay and doubling.
func WithRetries(n int, delay time.Duration) LLMOption {
	return func(p *LLMProvider) {
		if n < 0 {
			n = 0
		}
		if delay <= 0 {
			delay = defaultRetryDelay
		}
		p.retries = n
		p.retryDelay = delay
	}
}

func NewLLMProvider(id domain.ProviderID, model ports.LanguageModel, log *zap.Logger, opts ...LLMOption) *LLMProvider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &LLMProvider{
		id:         id,
		model:      model,
		retryDelay: defaultRetryDelay,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LLMProvider) ID() domain.ProviderID {
	return p.id
}

func (p *LLMProvider) Interpret(ctx context.Context, req Request) (Interpretation, error) {
	prompt := BuildPrompt(req)

	var out Interpretation
	call := func(ctx context.Context) error {
		raw, err := p.model.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		interp, err := parseInterpretation(raw)
		if err != nil {
			p.log.Debug("Rejected provider payload",
				zap.String("provider", string(p.id)),
				zap.Int("bytes", len(raw)),
				zap.Error(err),
			)
			return err
		}
		out = interp
		return nil
	}

	attempt := func() error {
		if p.breaker == nil {
			return call(ctx)
		}
		return p.breaker.Execute(ctx, call)
	}

	retries := p.retries
	if req.RetryAttempts > retries {
		retries = req.RetryAttempts
	}
	if err := circuitbreaker.RetryWithBackoff(ctx, retries, p.retryDelay, attempt); err != nil {
		return Interpretation{}, fmt.Errorf("%s: %w", p.id, err)
	}
	return out, nil
}
