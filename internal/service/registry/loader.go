package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

// Source names accepted by Load.
const (
	SourceDefault  = "default"
	SourceFile     = "file"
	SourceDatabase = "database"
)

type fileFormat struct {
	Categories []domain.CommandCategory   `yaml:"categories"`
	Commands   []domain.CommandDefinition `yaml:"commands"`
}

// Parse builds a registry from a YAML document.
func Parse(data []byte) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("registry: decode yaml: %w", err)
	}
	return New(f.Commands, f.Categories)
}

// LoadFile reads a YAML registry from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadRepository builds a registry from persisted definitions. An empty table
// yields the built-in set.
func LoadRepository(ctx context.Context, repo ports.CommandRepository) (*Registry, error) {
	defs, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list commands: %w", err)
	}
	if len(defs) == 0 {
		return Default(), nil
	}
	return New(defs, DefaultCategories())
}

// Load picks the registry source by name.
func Load(ctx context.Context, source, path string, repo ports.CommandRepository) (*Registry, error) {
	switch source {
	case "", SourceDefault:
		return Default(), nil
	case SourceFile:
		return LoadFile(path)
	case SourceDatabase:
		if repo == nil {
			return nil, fmt.Errorf("registry: database source without repository")
		}
		return LoadRepository(ctx, repo)
	default:
		return nil, fmt.Errorf("registry: unknown source %q", source)
	}
}
