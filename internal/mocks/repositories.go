package mocks

import (
	"context"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

// MockCommandRepository is a mock implementation of CommandRepository
type MockCommandRepository struct {
	Defs         []domain.CommandDefinition
	ListFunc     func(ctx context.Context) ([]domain.CommandDefinition, error)
	FindByIDFunc func(ctx context.Context, id string) (*domain.CommandDefinition, error)
	SaveFunc     func(ctx context.Context, def *domain.CommandDefinition) error
	DeleteFunc   func(ctx context.Context, id string) error
}

func (m *MockCommandRepository) List(ctx context.Context) ([]domain.CommandDefinition, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.Defs, nil
}

func (m *MockCommandRepository) FindByID(ctx context.Context, id string) (*domain.CommandDefinition, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	for i := range m.Defs {
		if m.Defs[i].ID == id {
			def := m.Defs[i]
			return &def, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (m *MockCommandRepository) Save(ctx context.Context, def *domain.CommandDefinition) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, def)
	}
	m.Defs = append(m.Defs, *def)
	return nil
}

func (m *MockCommandRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	for i := range m.Defs {
		if m.Defs[i].ID == id {
			m.Defs = append(m.Defs[:i], m.Defs[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}
