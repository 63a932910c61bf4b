package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/workforce-voice/internal/adapter/ai/anthropic"
	"github.com/seu-repo/workforce-voice/internal/adapter/ai/gemini"
	"github.com/seu-repo/workforce-voice/internal/adapter/ai/openai"
	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/ports"
	"github.com/seu-repo/workforce-voice/internal/service/voice"
	"github.com/seu-repo/workforce-voice/pkg/config"
)

// newLogger builds the process logger. "console" selects the development
// encoder, anything else is production JSON.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(cfg.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	zc.Sampling = nil
	if cfg.Sampling.Enabled {
		zc.Sampling = &zap.SamplingConfig{
			Initial:    cfg.Sampling.Initial,
			Thereafter: cfg.Sampling.Thereafter,
		}
	}
	return zc.Build()
}

// voiceConfig converts the loaded options into the pipeline config. Values go
// through ConfigPatch so the same clamping applies as for runtime updates.
func voiceConfig(vc config.VoiceConfig) voice.Config {
	timeoutMs := int(vc.Timeout / time.Millisecond)
	cooldownMs := int(vc.ProviderCooldown / time.Millisecond)
	return voice.NewConfig(voice.ConfigPatch{
		ConfidenceThreshold:        &vc.ConfidenceThreshold,
		BusinessRelevanceThreshold: &vc.BusinessRelevanceThreshold,
		EnableSmartFallback:        &vc.EnableSmartFallback,
		StrictMode:                 &vc.StrictMode,
		MaxEntitiesPerType:         &vc.MaxEntitiesPerType,
		TimeoutMs:                  &timeoutMs,
		RetryAttempts:              &vc.RetryAttempts,
		ProviderCooldownMs:         &cooldownMs,
		ExecuteActions:             &vc.ExecuteActions,
		SuggestionCount:            &vc.SuggestionCount,
		HistoryLimit:               &vc.HistoryLimit,
	})
}

// providerOrder normalises the configured chain. Blank entries are dropped.
func providerOrder(order []string) []domain.ProviderID {
	out := make([]domain.ProviderID, 0, len(order))
	for _, id := range order {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		out = append(out, domain.ProviderID(id))
	}
	return out
}

// resolveAPIKeys fills empty provider keys from the secret store. A key that
// cannot be read leaves the provider unconfigured.
func resolveAPIKeys(ctx context.Context, pc *config.ProvidersConfig, secrets ports.SecretStore, log *zap.Logger) {
	if secrets == nil {
		return
	}
	targets := map[domain.ProviderID]*config.ProviderConfig{
		domain.ProviderOpenAI:    &pc.OpenAI,
		domain.ProviderAnthropic: &pc.Anthropic,
		domain.ProviderGemini:    &pc.Gemini,
	}
	for id, target := range targets {
		if target.APIKey != "" {
			continue
		}
		key, err := secrets.GetProviderAPIKey(ctx, string(id))
		if err != nil {
			log.Warn("No API key in secret store", zap.String("provider", string(id)), zap.Error(err))
			continue
		}
		target.APIKey = key
	}
}

// buildModels creates a client for every provider with an API key.
func buildModels(pc config.ProvidersConfig, log *zap.Logger) map[domain.ProviderID]ports.LanguageModel {
	models := make(map[domain.ProviderID]ports.LanguageModel)

	if pc.OpenAI.APIKey != "" {
		models[domain.ProviderOpenAI] = openai.NewClient(openai.Config{
			APIKey:     pc.OpenAI.APIKey,
			BaseURL:    pc.OpenAI.BaseURL,
			Model:      pc.OpenAI.Model,
			MaxTokens:  pc.OpenAI.MaxTokens,
			HTTPClient: &http.Client{Timeout: pc.OpenAI.Timeout},
		}, log)
	}
	if pc.Anthropic.APIKey != "" {
		models[domain.ProviderAnthropic] = anthropic.NewClient(anthropic.Config{
			APIKey:     pc.Anthropic.APIKey,
			BaseURL:    pc.Anthropic.BaseURL,
			Model:      pc.Anthropic.Model,
			MaxTokens:  pc.Anthropic.MaxTokens,
			HTTPClient: &http.Client{Timeout: pc.Anthropic.Timeout},
		}, log)
	}
	if pc.Gemini.APIKey != "" {
		models[domain.ProviderGemini] = gemini.NewLiveClient(gemini.Config{
			APIKey:     pc.Gemini.APIKey,
			URL:        pc.Gemini.BaseURL,
			Model:      pc.Gemini.Model,
			HTTPClient: &http.Client{Timeout: pc.Gemini.Timeout},
		}, log)
	}
	return models
}
