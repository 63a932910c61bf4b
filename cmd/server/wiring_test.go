package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/pkg/config"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetProviderAPIKey(ctx context.Context, provider string) (string, error) {
	if key, ok := f[provider]; ok {
		return key, nil
	}
	return "", errors.New("not found")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = newLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = newLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestVoiceConfig(t *testing.T) {
	cfg := voiceConfig(config.VoiceConfig{
		ConfidenceThreshold:        0.8,
		BusinessRelevanceThreshold: 1.5,
		EnableSmartFallback:        true,
		MaxEntitiesPerType:         2,
		Timeout:                    1500 * time.Millisecond,
		RetryAttempts:              2,
		ProviderCooldown:           10 * time.Second,
		SuggestionCount:            3,
		HistoryLimit:               20,
	})

	assert.Equal(t, 0.8, cfg.ConfidenceThreshold)
	assert.Equal(t, 1.0, cfg.BusinessRelevanceThreshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.ProviderCooldown)
	assert.Equal(t, 2, cfg.MaxEntitiesPerType)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.False(t, cfg.ExecuteActions)
}

func TestProviderOrder(t *testing.T) {
	got := providerOrder([]string{" OpenAI", "", "gemini "})
	assert.Equal(t, []domain.ProviderID{domain.ProviderOpenAI, domain.ProviderGemini}, got)
}

func TestResolveAPIKeys(t *testing.T) {
	pc := config.ProvidersConfig{
		OpenAI: config.ProviderConfig{APIKey: "from-env"},
	}
	secrets := fakeSecrets{"openai": "from-vault", "anthropic": "sk-ant"}

	resolveAPIKeys(context.Background(), &pc, secrets, zap.NewNop())

	assert.Equal(t, "from-env", pc.OpenAI.APIKey)
	assert.Equal(t, "sk-ant", pc.Anthropic.APIKey)
	assert.Empty(t, pc.Gemini.APIKey)
}

func TestBuildModels(t *testing.T) {
	models := buildModels(config.ProvidersConfig{
		OpenAI: config.ProviderConfig{APIKey: "sk"},
		Gemini: config.ProviderConfig{APIKey: "g"},
	}, zap.NewNop())

	assert.Len(t, models, 2)
	assert.Contains(t, models, domain.ProviderOpenAI)
	assert.Contains(t, models, domain.ProviderGemini)
	assert.NotContains(t, models, domain.ProviderAnthropic)
}
