package voice

import (
	"time"

	"github.com/seu-repo/workforce-voice/internal/service/classifier"
	"github.com/seu-repo/workforce-voice/internal/service/entity"
	"github.com/seu-repo/workforce-voice/internal/service/nlu"
)

const (
	DefaultConfidenceThreshold        = 0.7
	DefaultBusinessRelevanceThreshold = 0.6
	DefaultMaxEntitiesPerType         = 3
	DefaultTimeout                    = 5 * time.Second
	DefaultRetryAttempts              = 1
	DefaultProviderCooldown           = 60 * time.Second
	DefaultSuggestionCount            = 3
	DefaultHistoryLimit               = 100
)

// Config is the immutable pipeline configuration. Build it with NewConfig and
// derive changed copies with Apply.
type Config struct {
	ConfidenceThreshold        float64       `json:"confidence_threshold"`
	BusinessRelevanceThreshold float64       `json:"business_relevance_threshold"`
	EnableSmartFallback        bool          `json:"enable_smart_fallback"`
	StrictMode                 bool          `json:"strict_mode"`
	MaxEntitiesPerType         int           `json:"max_entities_per_type"`
	Timeout                    time.Duration `json:"timeout"`
	RetryAttempts              int           `json:"retry_attempts"`
	ProviderCooldown           time.Duration `json:"provider_cooldown"`
	ExecuteActions             bool          `json:"execute_actions"`
	SuggestionCount            int           `json:"suggestion_count"`
	HistoryLimit               int           `json:"history_limit"`
}

// ConfigPatch is a partial update. Nil fields keep their current value.
// TimeoutMs mirrors the option name used by clients.
type ConfigPatch struct {
	ConfidenceThreshold        *float64 `json:"confidenceThreshold,omitempty"`
	BusinessRelevanceThreshold *float64 `json:"businessRelevanceThreshold,omitempty"`
	EnableSmartFallback        *bool    `json:"enableSmartFallback,omitempty"`
	StrictMode                 *bool    `json:"strictMode,omitempty"`
	MaxEntitiesPerType         *int     `json:"maxEntitiesPerType,omitempty"`
	TimeoutMs                  *int     `json:"timeoutMs,omitempty"`
	RetryAttempts              *int     `json:"retryAttempts,omitempty"`
	ProviderCooldownMs         *int     `json:"providerCooldownMs,omitempty"`
	ExecuteActions             *bool    `json:"executeActions,omitempty"`
	SuggestionCount            *int     `json:"suggestionCount,omitempty"`
	HistoryLimit               *int     `json:"historyLimit,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:        DefaultConfidenceThreshold,
		BusinessRelevanceThreshold: DefaultBusinessRelevanceThreshold,
		EnableSmartFallback:        true,
		MaxEntitiesPerType:         DefaultMaxEntitiesPerType,
		Timeout:                    DefaultTimeout,
		RetryAttempts:              DefaultRetryAttempts,
		ProviderCooldown:           DefaultProviderCooldown,
		SuggestionCount:            DefaultSuggestionCount,
		HistoryLimit:               DefaultHistoryLimit,
	}
}

// NewConfig applies p over the defaults. It is the only place defaults are filled in.
func NewConfig(p ConfigPatch) Config {
	return DefaultConfig().Apply(p)
}

// Apply returns a copy of c with p merged in. Thresholds are clamped into
// [0,1]; non-positive sizes and timeouts fall back to the defaults; negative
// retry counts and cooldowns become zero.
func (c Config) Apply(p ConfigPatch) Config {
	out := c
	if p.ConfidenceThreshold != nil {
		out.ConfidenceThreshold = clampUnit(*p.ConfidenceThreshold)
	}
	if p.BusinessRelevanceThreshold != nil {
		out.BusinessRelevanceThreshold = clampUnit(*p.BusinessRelevanceThreshold)
	}
	if p.EnableSmartFallback != nil {
		out.EnableSmartFallback = *p.EnableSmartFallback
	}
	if p.StrictMode != nil {
		out.StrictMode = *p.StrictMode
	}
	if p.MaxEntitiesPerType != nil {
		out.MaxEntitiesPerType = positiveOr(*p.MaxEntitiesPerType, DefaultMaxEntitiesPerType)
	}
	if p.TimeoutMs != nil {
		if *p.TimeoutMs > 0 {
			out.Timeout = time.Duration(*p.TimeoutMs) * time.Millisecond
		} else {
			out.Timeout = DefaultTimeout
		}
	}
	if p.RetryAttempts != nil {
		out.RetryAttempts = nonNegative(*p.RetryAttempts)
	}
	if p.ProviderCooldownMs != nil {
		out.ProviderCooldown = time.Duration(nonNegative(*p.ProviderCooldownMs)) * time.Millisecond
	}
	if p.ExecuteActions != nil {
		out.ExecuteActions = *p.ExecuteActions
	}
	if p.SuggestionCount != nil {
		out.SuggestionCount = positiveOr(*p.SuggestionCount, DefaultSuggestionCount)
	}
	if p.HistoryLimit != nil {
		out.HistoryLimit = positiveOr(*p.HistoryLimit, DefaultHistoryLimit)
	}
	return out
}

func (c Config) classifierOptions() classifier.Options {
	return classifier.Options{
		ConfidenceThreshold:        c.ConfidenceThreshold,
		BusinessRelevanceThreshold: c.BusinessRelevanceThreshold,
		EnableSmartFallback:        c.EnableSmartFallback,
		StrictMode:                 c.StrictMode,
	}
}

func (c Config) extractorOptions() entity.Options {
	opts := entity.DefaultOptions()
	opts.MaxEntitiesPerType = c.MaxEntitiesPerType
	return opts
}

func (c Config) orchestratorOptions() nlu.Options {
	return nlu.Options{
		ConfidenceThreshold: c.ConfidenceThreshold,
		Timeout:             c.Timeout,
		Cooldown:            c.ProviderCooldown,
		RetryAttempts:       c.RetryAttempts,
	}
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
