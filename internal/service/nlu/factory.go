package nlu

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

// Deps are the collaborators BuildProvider draws from.
type Deps struct {
	Models        map[domain.ProviderID]ports.LanguageModel
	Breakers      *circuitbreaker.Manager
	Triggers      TriggerMatcher
	RetryAttempts int
	RetryDelay    time.Duration
	Log           *zap.Logger
}

// BuildProvider constructs the provider for id. AI providers need a model in
// deps.Models.
func BuildProvider(id domain.ProviderID, deps Deps) (Provider, error) {
	switch id {
	case domain.ProviderOpenAI, domain.ProviderAnthropic, domain.ProviderGemini:
		model, ok := deps.Models[id]
		if !ok || model == nil {
			return nil, fmt.Errorf("nlu: provider %q has no configured client", id)
		}
		opts := []LLMOption{WithRetries(deps.RetryAttempts, deps.RetryDelay)}
		if deps.Breakers != nil {
			opts = append(opts, WithBreaker(deps.Breakers.Get("provider-"+string(id))))
		}
		return NewLLMProvider(id, model, deps.Log, opts...), nil
	case domain.ProviderKeywords:
		return NewKeywordProvider(deps.Triggers), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
}

// BuildProviders builds the chain for order. Providers without a configured
// client are skipped with a warning; unknown ids are an error.
func BuildProviders(order []domain.ProviderID, deps Deps) ([]Provider, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	seen := make(map[domain.ProviderID]bool, len(order))
	out := make([]Provider, 0, len(order)+1)
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		p, err := BuildProvider(id, deps)
		if err != nil {
			if errors.Is(err, ErrUnknownProvider) {
				return nil, err
			}
			log.Warn("Provider disabled", zap.String("provider", string(id)), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
