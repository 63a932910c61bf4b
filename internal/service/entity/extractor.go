package entity

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

// Options tunes the matching engine.
type Options struct {
	// ConfidenceThreshold drops rules whose static confidence is below it.
	ConfidenceThreshold float64
	// MaxEntitiesPerType caps slots per type (type, type_2, ...).
	MaxEntitiesPerType int
	// MaxEntities stops extraction globally once reached.
	MaxEntities int
	// EnableContext turns on the confidence bonus and implied-entity pass.
	EnableContext bool
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.5,
		MaxEntitiesPerType:  3,
		MaxEntities:         20,
		EnableContext:       true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		o.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if o.MaxEntitiesPerType <= 0 {
		o.MaxEntitiesPerType = d.MaxEntitiesPerType
	}
	if o.MaxEntities <= 0 || o.MaxEntities > d.MaxEntities {
		o.MaxEntities = d.MaxEntities
	}
	return o
}

// Extractor applies priority-ordered rules to text. It is safe for concurrent use.
type Extractor struct {
	rules []Rule
	opts  Options
	log   *zap.Logger
}

// NewExtractor builds an extractor. With no rules the built-in set is used.
func NewExtractor(opts Options, log *zap.Logger, rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		rules: sorted,
		opts:  opts.withDefaults(),
		log:   log,
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}

// Rules returns the rules in evaluation order.
func (e *Extractor) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// slotKey returns "type" for the first entity of a type and "type_N" afterwards.
func slotKey(t domain.EntityType, n int) string {
	if n <= 1 {
		return string(t)
	}
	return fmt.Sprintf("%s_%d", t, n)
}

type extraction struct {
	text    string
	opts    Options
	order   []string
	slots   map[string]domain.Entity
	perType map[domain.EntityType]int
	spans   []domain.Span
}

func (x *extraction) full() bool {
	return len(x.order) >= x.opts.MaxEntities
}

func (x *extraction) overlaps(s domain.Span) bool {
	for _, taken := range x.spans {
		if taken.Overlaps(s) {
			return true
		}
	}
	return false
}

// add stores an entity under the next free slot of its type.
func (x *extraction) add(e domain.Entity) bool {
	if x.full() || x.perType[e.Type] >= x.opts.MaxEntitiesPerType {
		return false
	}
	if e.Span != nil {
		if x.overlaps(*e.Span) {
			return false
		}
		x.spans = append(x.spans, *e.Span)
	}
	x.perType[e.Type]++
	key := slotKey(e.Type, x.perType[e.Type])
	x.slots[key] = e
	x.order = append(x.order, key)
	return true
}

func (x *extraction) has(t domain.EntityType) bool {
	return x.perType[t] > 0
}

// Extract never fails; a rule that cannot match simply contributes nothing.
func (e *Extractor) Extract(text string) domain.EntityExtractionResult {
	x := &extraction{
		text:    text,
		opts:    e.opts,
		slots:   make(map[string]domain.Entity),
		perType: make(map[domain.EntityType]int),
	}

	for _, rule := range e.rules {
		if x.full() {
			break
		}
		for _, c := range rule.Match(text) {
			if x.full() {
				break
			}
			if x.overlaps(c.Span) {
				continue
			}
			value, ok := rule.Apply(c.Value)
			if !ok {
				continue
			}
			if rule.Confidence < e.opts.ConfidenceThreshold {
				continue
			}
			span := c.Span
			x.add(domain.Entity{
				Type:       rule.Type,
				Value:      value,
				Confidence: rule.Confidence,
				SourceText: c.Source,
				Span:       &span,
			})
		}
	}

	if e.opts.EnableContext {
		applyContextBonus(x)
		deriveImplied(x)
	}

	result := domain.EntityExtractionResult{
		Entities:        x.slots,
		Confidence:      meanConfidence(x.slots),
		MissingRequired: missingRequired(text, x),
	}

	e.log.Debug("Entities extracted",
		zap.Int("count", len(x.slots)),
		zap.Float64("confidence", result.Confidence),
		zap.Strings("missing", result.MissingRequired),
	)
	return result
}

func meanConfidence(slots map[string]domain.Entity) float64 {
	if len(slots) == 0 {
		return 0
	}
	var sum float64
	for _, e := range slots {
		sum += e.Confidence
	}
	return sum / float64(len(slots))
}
