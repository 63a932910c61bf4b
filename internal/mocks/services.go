package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

// MockLanguageModel is a mock implementation of LanguageModel interface
type MockLanguageModel struct {
	mu           sync.Mutex
	Prompts      []string
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockLanguageModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return `{"intent":"unknown","entities":{},"confidence":0}`, nil
}

// Calls returns how many prompts were sent.
func (m *MockLanguageModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// MockActionExecutor is a mock implementation of ActionExecutor interface
type MockActionExecutor struct {
	mu          sync.Mutex
	Executed    []domain.Action
	ExecuteFunc func(ctx context.Context, action domain.Action) (domain.ActionResult, error)
}

func (m *MockActionExecutor) Execute(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	m.mu.Lock()
	m.Executed = append(m.Executed, action)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, action)
	}
	return domain.ActionResult{ActionID: action.ID, Kind: string(action.Kind), Success: true}, nil
}

// MockSecretStore is a mock implementation of SecretStore interface
type MockSecretStore struct {
	Keys                  map[string]string
	GetProviderAPIKeyFunc func(ctx context.Context, provider string) (string, error)
}

func (m *MockSecretStore) GetProviderAPIKey(ctx context.Context, provider string) (string, error) {
	if m.GetProviderAPIKeyFunc != nil {
		return m.GetProviderAPIKeyFunc(ctx, provider)
	}
	return m.Keys[provider], nil
}

// BroadcastedEvent is one call recorded by MockBroadcaster.
type BroadcastedEvent struct {
	Event   string
	Payload interface{}
}

// MockBroadcaster is a mock implementation of Broadcaster interface
type MockBroadcaster struct {
	mu            sync.Mutex
	Events        []BroadcastedEvent
	BroadcastFunc func(event string, payload interface{})
}

func (m *MockBroadcaster) Broadcast(event string, payload interface{}) {
	m.mu.Lock()
	m.Events = append(m.Events, BroadcastedEvent{Event: event, Payload: payload})
	m.mu.Unlock()
	if m.BroadcastFunc != nil {
		m.BroadcastFunc(event, payload)
	}
}

// Recorded returns a copy of the recorded events.
func (m *MockBroadcaster) Recorded() []BroadcastedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BroadcastedEvent(nil), m.Events...)
}
