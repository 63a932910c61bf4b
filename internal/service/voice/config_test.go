package voice

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig(ConfigPatch{})

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.6, cfg.BusinessRelevanceThreshold)
	assert.True(t, cfg.EnableSmartFallback)
	assert.False(t, cfg.StrictMode)
	assert.Equal(t, 3, cfg.MaxEntitiesPerType)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.RetryAttempts)
	assert.False(t, cfg.ExecuteActions)
}

func TestConfig_Apply(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name  string
		patch ConfigPatch
		check func(t *testing.T, c Config)
	}{
		{"threshold clamped high", ConfigPatch{ConfidenceThreshold: floatPtr(1.4)}, func(t *testing.T, c Config) {
			assert.Equal(t, 1.0, c.ConfidenceThreshold)
		}},
		{"threshold clamped low", ConfigPatch{BusinessRelevanceThreshold: floatPtr(-2)}, func(t *testing.T, c Config) {
			assert.Equal(t, 0.0, c.BusinessRelevanceThreshold)
		}},
		{"NaN threshold", ConfigPatch{ConfidenceThreshold: floatPtr(math.NaN())}, func(t *testing.T, c Config) {
			assert.Equal(t, 0.0, c.ConfidenceThreshold)
		}},
		{"timeout in ms", ConfigPatch{TimeoutMs: intPtr(1500)}, func(t *testing.T, c Config) {
			assert.Equal(t, 1500*time.Millisecond, c.Timeout)
		}},
		{"zero timeout uses default", ConfigPatch{TimeoutMs: intPtr(0)}, func(t *testing.T, c Config) {
			assert.Equal(t, DefaultTimeout, c.Timeout)
		}},
		{"zero retries allowed", ConfigPatch{RetryAttempts: intPtr(0)}, func(t *testing.T, c Config) {
			assert.Equal(t, 0, c.RetryAttempts)
		}},
		{"negative retries", ConfigPatch{RetryAttempts: intPtr(-3)}, func(t *testing.T, c Config) {
			assert.Equal(t, 0, c.RetryAttempts)
		}},
		{"non-positive per type", ConfigPatch{MaxEntitiesPerType: intPtr(-1)}, func(t *testing.T, c Config) {
			assert.Equal(t, DefaultMaxEntitiesPerType, c.MaxEntitiesPerType)
		}},
		{"switches", ConfigPatch{StrictMode: boolPtr(true), EnableSmartFallback: boolPtr(false)}, func(t *testing.T, c Config) {
			assert.True(t, c.StrictMode)
			assert.False(t, c.EnableSmartFallback)
		}},
		{"cooldown disabled", ConfigPatch{ProviderCooldownMs: intPtr(0)}, func(t *testing.T, c Config) {
			assert.Zero(t, c.ProviderCooldown)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Apply(tt.patch)
			tt.check(t, got)
			assert.Equal(t, DefaultConfig(), base, "Apply must not modify the receiver")
		})
	}
}

func TestConfig_DerivedOptions(t *testing.T) {
	cfg := NewConfig(ConfigPatch{
		ConfidenceThreshold: floatPtr(0.8),
		StrictMode:          boolPtr(true),
		MaxEntitiesPerType:  intPtr(2),
		RetryAttempts:       intPtr(2),
	})

	co := cfg.classifierOptions()
	assert.Equal(t, 0.8, co.ConfidenceThreshold)
	assert.True(t, co.StrictMode)

	assert.Equal(t, 2, cfg.extractorOptions().MaxEntitiesPerType)

	oo := cfg.orchestratorOptions()
	assert.Equal(t, 0.8, oo.ConfidenceThreshold)
	assert.Equal(t, 2, oo.RetryAttempts)
	assert.Equal(t, DefaultProviderCooldown, oo.Cooldown)
}
