package config

import (
	"time"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

type Config struct {
	App            AppConfig              `mapstructure:"app"`
	HTTP           HTTPConfig             `mapstructure:"http"`
	GRPC           GRPCConfig             `mapstructure:"grpc"`
	Voice          VoiceConfig            `mapstructure:"voice"`
	Providers      ProvidersConfig        `mapstructure:"providers"`
	Actions        ActionsConfig          `mapstructure:"actions"`
	Registry       RegistryConfig         `mapstructure:"registry"`
	Database       DatabaseConfig         `mapstructure:"database"`
	Redis          RedisConfig            `mapstructure:"redis"`
	Queue          QueueConfig            `mapstructure:"queue"`
	Vault          VaultConfig            `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig    `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig       `mapstructure:"prometheus"`
	Logging        LoggingConfig          `mapstructure:"logging"`
	RateLimiting   RateLimitingConfig     `mapstructure:"rate_limiting"`
	CircuitBreaker CircuitBreakerConfig   `mapstructure:"circuit_breaker"`
	CORS           CORSConfig             `mapstructure:"cors"`
	Business       domain.BusinessContext `mapstructure:"business"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	BodyLimit       int           `mapstructure:"body_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Port           int           `mapstructure:"port"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// VoiceConfig holds the pipeline options; it is turned into voice.Config at startup.
type VoiceConfig struct {
	ConfidenceThreshold        float64       `mapstructure:"confidence_threshold"`
	BusinessRelevanceThreshold float64       `mapstructure:"business_relevance_threshold"`
	EnableSmartFallback        bool          `mapstructure:"enable_smart_fallback"`
	StrictMode                 bool          `mapstructure:"strict_mode"`
	MaxEntitiesPerType         int           `mapstructure:"max_entities_per_type"`
	Timeout                    time.Duration `mapstructure:"timeout"`
	RetryAttempts              int           `mapstructure:"retry_attempts"`
	ProviderCooldown           time.Duration `mapstructure:"provider_cooldown"`
	ExecuteActions             bool          `mapstructure:"execute_actions"`
	SuggestionCount            int           `mapstructure:"suggestion_count"`
	HistoryLimit               int           `mapstructure:"history_limit"`
	ProfileTTL                 time.Duration `mapstructure:"profile_ttl"`
	SessionIdleTimeout         time.Duration `mapstructure:"session_idle_timeout"`
	SessionSweepInterval       time.Duration `mapstructure:"session_sweep_interval"`
	MaxSessions                int           `mapstructure:"max_sessions"`
}

type ProvidersConfig struct {
	// Order is the fallback chain; the keyword provider always ends it.
	Order      []string       `mapstructure:"order"`
	UseVault   bool           `mapstructure:"use_vault"`
	RetryDelay time.Duration  `mapstructure:"retry_delay"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// ActionsConfig selects how api_call actions are carried out: "http" calls the
// business system directly, "queue" defers them to voice.actions, "none"
// disables execution.
type ActionsConfig struct {
	Mode    string            `mapstructure:"mode"`
	BaseURL string            `mapstructure:"base_url"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Worker  bool              `mapstructure:"worker"`
}

type RegistryConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type QueueConfig struct {
	Driver         string `mapstructure:"driver"`
	URL            string `mapstructure:"url"`
	ActionsSubject string `mapstructure:"actions_subject"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Mount   string `mapstructure:"mount"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	ServiceName string       `mapstructure:"service_name"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level    string          `mapstructure:"level"`
	Format   string          `mapstructure:"format"`
	Sampling LoggingSampling `mapstructure:"sampling"`
}

type LoggingSampling struct {
	Enabled    bool `mapstructure:"enabled"`
	Initial    int  `mapstructure:"initial"`
	Thereafter int  `mapstructure:"thereafter"`
}

type RateLimitingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}
