package nlu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/service/registry"
)

func TestKeywordProvider_Triggers(t *testing.T) {
	kp := NewKeywordProvider(registry.Default())

	tests := []struct {
		text       string
		intent     string
		confidence float64
	}{
		{"clock in", "clock_in", 0.95},
		{"Clock me in!", "clock_in", 0.95},
		{"could you please clock in for me", "clock_in", 0.85},
		{"help", "help", 0.95},
		{"create task for the loading dock", "create_task", 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := kp.Interpret(context.Background(), Request{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.intent, got.Intent)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestKeywordProvider_Patterns(t *testing.T) {
	kp := NewKeywordProvider(nil)

	tests := []struct {
		text       string
		intent     string
		confidence float64
	}{
		{"good evening", "greeting", 0.8},
		{"I need some time off next week", "request_time_off", 0.85},
		{"start my shift and clock in", "clock_in", 0.9},
		{"when am I working", "check_schedule", 0.8},
		{"show me my tasks", "view_tasks", 0.8},
		{"what is the weather like", domain.IntentUnknown, 0.2},
		{"", domain.IntentUnknown, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := kp.Interpret(context.Background(), Request{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.intent, got.Intent)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestKeywordProvider_Destination(t *testing.T) {
	kp := NewKeywordProvider(nil)

	got, err := kp.Interpret(context.Background(), Request{Text: "go to the weekly reports page"})
	require.NoError(t, err)
	assert.Equal(t, "navigate", got.Intent)

	dest, ok := got.Entities[string(domain.EntityDestination)]
	require.True(t, ok)
	assert.Equal(t, "weekly-reports", dest.Value)
	require.NotNil(t, dest.Span)
	assert.Equal(t, "weekly reports", "go to the weekly reports page"[dest.Span.Start:dest.Span.End])
}

func TestKeywordProvider_KeepsRequestEntities(t *testing.T) {
	kp := NewKeywordProvider(nil)
	in := map[string]domain.Entity{
		"taskIdentifier": {Type: domain.EntityTaskIdentifier, Value: "5", Confidence: 1},
	}

	got, err := kp.Interpret(context.Background(), Request{Text: "complete task 5", Entities: in})
	require.NoError(t, err)
	assert.Equal(t, "complete_task", got.Intent)
	assert.Equal(t, "5", got.Entities["taskIdentifier"].Value)

	got.Entities["extra"] = domain.Entity{}
	assert.Len(t, in, 1, "request map must not be mutated")
}
