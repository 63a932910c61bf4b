package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

var (
	ErrDuplicateID = errors.New("registry: duplicate command id")
	ErrInvalidDef  = errors.New("registry: invalid command definition")
)

var nonWord = regexp.MustCompile(`[^a-z0-9']+`)

var (
	validComplexity = map[domain.Complexity]bool{
		domain.ComplexitySimple:   true,
		domain.ComplexityModerate: true,
		domain.ComplexityComplex:  true,
		domain.ComplexityBusiness: true,
	}
)

type trigger struct {
	phrase string // normalised, space padded
	words  int
	index  int
}

// Registry is an immutable set of command definitions. All lookups are safe
// for concurrent use.
type Registry struct {
	defs       []domain.CommandDefinition
	categories []domain.CommandCategory
	byID       map[string]int
	byIntent   map[string]int
	triggers   []trigger
}

// New validates defs and builds the lookup indexes. Definitions are copied.
func New(defs []domain.CommandDefinition, categories []domain.CommandCategory) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]int, len(defs)),
		byIntent: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		if err := validate(def); err != nil {
			return nil, err
		}
		if _, dup := r.byID[def.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, def.ID)
		}
		idx := len(r.defs)
		r.defs = append(r.defs, clone(def))
		r.byID[def.ID] = idx
		if _, seen := r.byIntent[def.Intent]; !seen {
			r.byIntent[def.Intent] = idx
		}
		for _, t := range def.Triggers {
			norm := normalize(t)
			if norm == "" {
				continue
			}
			r.triggers = append(r.triggers, trigger{
				phrase: " " + norm + " ",
				words:  len(strings.Fields(norm)),
				index:  idx,
			})
		}
	}
	sort.SliceStable(r.triggers, func(i, j int) bool {
		return len(r.triggers[i].phrase) > len(r.triggers[j].phrase)
	})
	r.categories = append([]domain.CommandCategory(nil), categories...)
	return r, nil
}

func validate(def domain.CommandDefinition) error {
	switch {
	case strings.TrimSpace(def.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidDef)
	case strings.TrimSpace(def.Intent) == "":
		return fmt.Errorf("%w: %s has no intent", ErrInvalidDef, def.ID)
	case def.Complexity != "" && !validComplexity[def.Complexity]:
		return fmt.Errorf("%w: %s has complexity %q", ErrInvalidDef, def.ID, def.Complexity)
	case def.Action != nil && def.Action.Kind != domain.ActionAPICall && def.Action.Kind != domain.ActionNavigate:
		return fmt.Errorf("%w: %s has action kind %q", ErrInvalidDef, def.ID, def.Action.Kind)
	}
	return nil
}

func clone(def domain.CommandDefinition) domain.CommandDefinition {
	out := def
	out.Triggers = append([]string(nil), def.Triggers...)
	out.RequiredEntities = append([]string(nil), def.RequiredEntities...)
	out.Examples = append([]string(nil), def.Examples...)
	if def.Complexity == "" {
		out.Complexity = domain.ComplexityModerate
	}
	if def.Action != nil {
		a := *def.Action
		out.Action = &a
	}
	return out
}

// normalize lowercases and collapses everything that is not a word character.
func normalize(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(s), " "))
}

// FindByID returns the definition with the given id.
func (r *Registry) FindByID(id string) (domain.CommandDefinition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.CommandDefinition{}, false
	}
	return clone(r.defs[i]), true
}

// FindByIntent returns the first definition declaring intent.
func (r *Registry) FindByIntent(intent string) (domain.CommandDefinition, bool) {
	i, ok := r.byIntent[intent]
	if !ok {
		return domain.CommandDefinition{}, false
	}
	return clone(r.defs[i]), true
}

// Match finds the definition whose trigger phrase appears in text on word
// boundaries. The longest trigger wins; ties keep registration order.
func (r *Registry) Match(text string) (domain.CommandDefinition, bool) {
	norm := " " + normalize(text) + " "
	for _, t := range r.triggers {
		if strings.Contains(norm, t.phrase) {
			return clone(r.defs[t.index]), true
		}
	}
	return domain.CommandDefinition{}, false
}

// MatchExact reports whether text is exactly one of the definition's triggers.
func (r *Registry) MatchExact(text string) (domain.CommandDefinition, bool) {
	norm := " " + normalize(text) + " "
	for _, t := range r.triggers {
		if norm == t.phrase {
			return clone(r.defs[t.index]), true
		}
	}
	return domain.CommandDefinition{}, false
}

// Intents returns the distinct intents, sorted.
func (r *Registry) Intents() []string {
	out := make([]string, 0, len(r.byIntent))
	for intent := range r.byIntent {
		out = append(out, intent)
	}
	sort.Strings(out)
	return out
}

// Examples returns up to n examples, one per definition, in registration order.
func (r *Registry) Examples(n int) []string {
	var out []string
	for _, def := range r.defs {
		if len(out) >= n {
			break
		}
		if len(def.Examples) > 0 {
			out = append(out, def.Examples[0])
		}
	}
	return out
}

// Definitions returns a copy of every definition.
func (r *Registry) Definitions() []domain.CommandDefinition {
	out := make([]domain.CommandDefinition, len(r.defs))
	for i, def := range r.defs {
		out[i] = clone(def)
	}
	return out
}

func (r *Registry) Categories() []domain.CommandCategory {
	return append([]domain.CommandCategory(nil), r.categories...)
}

func (r *Registry) Len() int {
	return len(r.defs)
}
