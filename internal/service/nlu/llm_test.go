package nlu

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/workforce-voice/internal/mocks"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

func TestLLMProvider_Interpret(t *testing.T) {
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "```json\n{\"intent\":\"clock_in\",\"confidence\":0.93,\"entities\":{\"location\":\"dock 4\"}}\n```", nil
		},
	}
	p := NewLLMProvider(domain.ProviderOpenAI, model, nil)

	got, err := p.Interpret(context.Background(), Request{Text: "clock me in at dock 4", Intents: []string{"clock_in"}})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOpenAI, p.ID())
	assert.Equal(t, "clock_in", got.Intent)
	assert.InDelta(t, 0.93, got.Confidence, 1e-9)
	assert.Equal(t, "dock 4", got.Entities["location"].Value)

	require.Equal(t, 1, model.Calls())
	assert.True(t, strings.Contains(model.Prompts[0], `"clock me in at dock 4"`))
}

func TestLLMProvider_Malformed(t *testing.T) {
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "Sorry, I can't help with that.", nil
		},
	}
	p := NewLLMProvider(domain.ProviderAnthropic, model, nil)

	_, err := p.Interpret(context.Background(), Request{Text: "clock in"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestLLMProvider_Retries(t *testing.T) {
	calls := 0
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("connection reset")
			}
			return `{"intent":"help","confidence":0.8}`, nil
		},
	}
	p := NewLLMProvider(domain.ProviderGemini, model, nil, WithRetries(2, time.Millisecond))

	got, err := p.Interpret(context.Background(), Request{Text: "help"})
	require.NoError(t, err)
	assert.Equal(t, "help", got.Intent)
	assert.Equal(t, 2, model.Calls())
}

func TestLLMProvider_BreakerOpens(t *testing.T) {
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("503")
		},
	}
	breaker := circuitbreaker.New(circuitbreaker.Settings{Name: "provider-openai", FailureThreshold: 2, Timeout: time.Minute}, nil)
	p := NewLLMProvider(domain.ProviderOpenAI, model, nil, WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, err := p.Interpret(context.Background(), Request{Text: "clock in"})
		require.Error(t, err)
	}
	assert.True(t, breaker.Open())

	_, err := p.Interpret(context.Background(), Request{Text: "clock in"})
	require.Error(t, err)
	assert.True(t, circuitbreaker.IsCircuitOpen(err))
	assert.Equal(t, 2, model.Calls())
}

func TestBuildProvider(t *testing.T) {
	deps := Deps{
		Models: map[domain.ProviderID]ports.LanguageModel{
			domain.ProviderOpenAI: &mocks.MockLanguageModel{},
		},
		Breakers: circuitbreaker.NewManager(circuitbreaker.DefaultSettings(), nil),
	}

	p, err := BuildProvider(domain.ProviderOpenAI, deps)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOpenAI, p.ID())

	p, err = BuildProvider(domain.ProviderKeywords, deps)
	require.NoError(t, err)
	assert.IsType(t, &KeywordProvider{}, p)

	_, err = BuildProvider(domain.ProviderAnthropic, deps)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownProvider))

	_, err = BuildProvider("watson", deps)
	assert.True(t, errors.Is(err, ErrUnknownProvider))

	chain, err := BuildProviders([]domain.ProviderID{
		domain.ProviderOpenAI, domain.ProviderAnthropic, domain.ProviderOpenAI, domain.ProviderKeywords,
	}, deps)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, domain.ProviderOpenAI, chain[0].ID())
	assert.Equal(t, domain.ProviderKeywords, chain[1].ID())

	_, err = BuildProviders([]domain.ProviderID{"watson"}, deps)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestBuildProvider_TransportFailuresTripNamedBreaker(t *testing.T) {
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("dial tcp: connection refused")
		},
	}
	breakers := circuitbreaker.NewManager(circuitbreaker.Settings{FailureThreshold: 1, Timeout: time.Minute}, nil)
	p, err := BuildProvider(domain.ProviderAnthropic, Deps{
		Models:   map[domain.ProviderID]ports.LanguageModel{domain.ProviderAnthropic: model},
		Breakers: breakers,
	})
	require.NoError(t, err)

	_, err = p.Interpret(context.Background(), Request{Text: "clock in"})
	require.Error(t, err)
	assert.True(t, breakers.Get("provider-anthropic").Open())

	_, err = p.Interpret(context.Background(), Request{Text: "clock in"})
	assert.True(t, circuitbreaker.IsCircuitOpen(err))
	assert.Equal(t, 1, model.Calls())
}
