package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads config.yaml from ./configs, . or /app/configs (optional) and
// overlays APP_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")
	return load(v)
}

// LoadFile reads an explicit config file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.url", "NATS_URL", "APP_QUEUE_URL")
	v.BindEnv("providers.openai.api_key", "OPENAI_API_KEY", "APP_PROVIDERS_OPENAI_API_KEY")
	v.BindEnv("providers.anthropic.api_key", "ANTHROPIC_API_KEY", "APP_PROVIDERS_ANTHROPIC_API_KEY")
	v.BindEnv("providers.gemini.api_key", "GEMINI_API_KEY", "APP_PROVIDERS_GEMINI_API_KEY")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "workforce-voice")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.body_limit", 1<<20)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("grpc.health_interval", 10*time.Second)

	v.SetDefault("voice.confidence_threshold", 0.7)
	v.SetDefault("voice.business_relevance_threshold", 0.6)
	v.SetDefault("voice.enable_smart_fallback", true)
	v.SetDefault("voice.strict_mode", false)
	v.SetDefault("voice.max_entities_per_type", 3)
	v.SetDefault("voice.timeout", 5*time.Second)
	v.SetDefault("voice.retry_attempts", 1)
	v.SetDefault("voice.provider_cooldown", 60*time.Second)
	v.SetDefault("voice.execute_actions", false)
	v.SetDefault("voice.suggestion_count", 3)
	v.SetDefault("voice.history_limit", 100)
	v.SetDefault("voice.profile_ttl", 24*time.Hour)
	v.SetDefault("voice.session_idle_timeout", 30*time.Minute)
	v.SetDefault("voice.session_sweep_interval", time.Minute)
	v.SetDefault("voice.max_sessions", 10000)

	v.SetDefault("providers.order", []string{"openai", "anthropic", "gemini", "keywords"})
	v.SetDefault("providers.use_vault", false)
	v.SetDefault("providers.retry_delay", 200*time.Millisecond)
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.timeout", 10*time.Second)
	v.SetDefault("providers.openai.max_tokens", 256)
	v.SetDefault("providers.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("providers.anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("providers.anthropic.timeout", 10*time.Second)
	v.SetDefault("providers.anthropic.max_tokens", 256)
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash-exp")
	v.SetDefault("providers.gemini.timeout", 10*time.Second)

	v.SetDefault("actions.mode", "none")
	v.SetDefault("actions.timeout", 10*time.Second)
	v.SetDefault("actions.worker", false)

	v.SetDefault("registry.source", "default")
	v.SetDefault("registry.path", "configs/commands.yaml")

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key_prefix", "voice:")

	v.SetDefault("queue.driver", "none")
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.actions_subject", "voice.actions")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "http://localhost:8200")
	v.SetDefault("vault.mount", "secret")

	v.SetDefault("opentelemetry.enabled", false)
	v.SetDefault("opentelemetry.service_name", "workforce-voice")
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.sampling.enabled", false)
	v.SetDefault("logging.sampling.initial", 100)
	v.SetDefault("logging.sampling.thereafter", 100)

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.max_requests", 120)
	v.SetDefault("rate_limiting.window", time.Minute)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 5)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("business.name", "Workforce")
	v.SetDefault("business.domain", "workforce management")
	v.SetDefault("business.capabilities", []string{"time tracking", "task management", "scheduling", "messaging"})
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Actions.Mode) {
	case "", "none", "http", "queue":
	default:
		return fmt.Errorf("config: actions.mode %q must be http, queue or none", c.Actions.Mode)
	}
	if strings.EqualFold(c.Actions.Mode, "http") && c.Actions.BaseURL == "" {
		return errors.New("config: actions.base_url is required when actions.mode is http")
	}
	if strings.EqualFold(c.Actions.Mode, "queue") && strings.EqualFold(c.Queue.Driver, "none") {
		return errors.New("config: actions.mode queue needs a queue driver")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http.port %d out of range", c.HTTP.Port)
	}
	return nil
}
