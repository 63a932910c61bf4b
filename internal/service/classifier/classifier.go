package classifier

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

const maxDensityBonus = 0.3

var nonWord = regexp.MustCompile(`[^a-z0-9']+`)

var simplePattern = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|yo|good\s+(?:morning|afternoon|evening)|thanks?(?:\s+you)?|thank\s+you|help(?:\s+me)?|what\s+can\s+you\s+do|how\s+are\s+you|who\s+are\s+you|stop|cancel|never\s*mind|repeat(?:\s+that)?)(?:\s+(?:please|there|assistant))?[\s!.?,]*$`)

type category struct {
	reason     domain.FallbackReason
	complexity domain.Complexity
	pattern    *regexp.Regexp
}

// fallbackCategories are checked in order; the first match decides the reason.
var fallbackCategories = []category{
	{
		reason:     domain.ReasonRealTimeData,
		complexity: domain.ComplexityBusiness,
		pattern:    regexp.MustCompile(`(?i)\b(?:current|currently|right\s+now|live|real[\s-]?time|status\s+of|who(?:'s|\s+is)\s+(?:on|working|in)|where\s+is|today's|latest|now)\b`),
	},
	{
		reason:     domain.ReasonWorkflowManagement,
		complexity: domain.ComplexityComplex,
		pattern:    regexp.MustCompile(`(?i)\b(?:approve|approval|assign|reassign|escalate|workflow|request|submit|reschedule|swap|hand\s+over|sign\s+off)\b`),
	},
	{
		reason:     domain.ReasonDatabaseOperation,
		complexity: domain.ComplexityBusiness,
		pattern:    regexp.MustCompile(`(?i)\b(?:report|history|records?|list\s+all|how\s+many|total|count|search|find|look\s*up|export|last\s+(?:week|month))\b`),
	},
	{
		reason:     domain.ReasonUserContext,
		complexity: domain.ComplexityComplex,
		pattern:    regexp.MustCompile(`(?i)\b(?:my|mine|am\s+i|do\s+i|i\s+have)\b`),
	},
}

// Options holds the thresholds and switches that drive a decision.
type Options struct {
	ConfidenceThreshold        float64
	BusinessRelevanceThreshold float64
	EnableSmartFallback        bool
	StrictMode                 bool
}

// Classifier decides whether a command can be answered locally. It is
// immutable; the With* methods return modified copies.
type Classifier struct {
	opts     Options
	keywords Keywords
	log      *zap.Logger
}

// New returns a classifier. A nil keyword set uses DefaultKeywords.
func New(opts Options, keywords Keywords, log *zap.Logger) *Classifier {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		opts:     opts,
		keywords: keywords.Clone(),
		log:      log,
	}
}

// WithOptions returns a copy using opts.
func (c *Classifier) WithOptions(opts Options) *Classifier {
	cp := *c
	cp.opts = opts
	return &cp
}

// WithKeywords returns a copy with extra merged over the current dictionary.
func (c *Classifier) WithKeywords(extra Keywords) *Classifier {
	cp := *c
	cp.keywords = c.keywords.Merge(extra)
	return &cp
}

// WithBusinessContext merges the industry dictionary for ctx.Domain and the
// capability words that are not already weighted.
func (c *Classifier) WithBusinessContext(ctx domain.BusinessContext) *Classifier {
	cp := *c
	kw := c.keywords
	if d := DomainKeywords(ctx.Domain); d != nil {
		kw = kw.Merge(d)
	}
	cp.keywords = kw.mergeMissing(CapabilityKeywords(ctx.Capabilities))
	return &cp
}

// Keywords returns a copy of the active dictionary.
func (c *Classifier) Keywords() Keywords {
	return c.keywords.Clone()
}

func (c *Classifier) Options() Options {
	return c.opts
}

// Relevance scores how much text leans on business data: the mean weight of the
// distinct keywords found plus a density bonus capped at 0.3.
func (c *Classifier) Relevance(text string) (float64, []string) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0, nil
	}
	var matched []string
	occurrences := make(map[string]int)
	for kw := range c.keywords {
		if n := countPhrase(tokens, strings.Fields(kw)); n > 0 {
			matched = append(matched, kw)
			occurrences[kw] = n
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	// sum in a fixed order so identical inputs give bit-identical scores
	sort.Strings(matched)

	var weightSum float64
	wordsTaken := 0
	for _, kw := range matched {
		weightSum += c.keywords[kw]
		wordsTaken += occurrences[kw] * len(strings.Fields(kw))
	}

	density := math.Min(float64(wordsTaken)/float64(len(tokens)), maxDensityBonus)
	return math.Min(weightSum/float64(len(matched))+density, 1), matched
}

// countPhrase counts the positions where phrase starts in tokens. Occurrences
// may be adjacent; overlapping ones are counted separately.
func countPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 {
		return 0
	}
	n := 0
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, w := range phrase {
			if tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

// Classify never fails; an unmatched command falls back with unknown_command.
func (c *Classifier) Classify(cmd domain.VoiceCommand, def *domain.CommandDefinition) domain.CommandClassification {
	relevance, keywords := c.Relevance(cmd.RawText)

	var out domain.CommandClassification
	if def != nil {
		out = c.fromDefinition(*def)
	} else {
		out = c.fromText(cmd, relevance)
	}
	out.Confidence = clamp(cmd.Confidence)
	out.BusinessRelevance = relevance
	out.DetectedKeywords = keywords

	if c.opts.EnableSmartFallback {
		c.applyOverrides(&out, cmd, def)
	}

	c.log.Debug("Command classified",
		zap.String("intent", cmd.Intent),
		zap.Bool("can_handle", out.CanHandle),
		zap.String("reason", string(out.FallbackReason)),
		zap.Float64("relevance", relevance),
	)
	return out
}

func (c *Classifier) fromDefinition(def domain.CommandDefinition) domain.CommandClassification {
	out := domain.CommandClassification{
		Complexity:       def.Complexity,
		CanHandle:        !def.RequiresBusinessData,
		ShouldFallback:   def.RequiresBusinessData,
		FallbackReason:   def.FallbackReason,
		RequiredEntities: append([]string(nil), def.RequiredEntities...),
	}
	if out.Complexity == "" {
		out.Complexity = domain.ComplexityModerate
	}
	if out.CanHandle {
		out.FallbackReason = domain.ReasonNone
	} else if out.FallbackReason == domain.ReasonNone {
		out.FallbackReason = domain.ReasonRequiresBusinessData
	}
	return out
}

func (c *Classifier) fromText(cmd domain.VoiceCommand, relevance float64) domain.CommandClassification {
	if simplePattern.MatchString(cmd.RawText) {
		return domain.CommandClassification{
			Complexity: domain.ComplexitySimple,
			CanHandle:  true,
		}
	}

	if relevance >= c.opts.BusinessRelevanceThreshold && relevance > 0 {
		for _, cat := range fallbackCategories {
			if cat.pattern.MatchString(cmd.RawText) {
				return fallback(cat.complexity, cat.reason)
			}
		}
		return fallback(domain.ComplexityComplex, domain.ReasonComplexOperation)
	}

	if cmd.Confidence < c.opts.ConfidenceThreshold {
		return fallback(domain.ComplexityModerate, domain.ReasonLowConfidence)
	}
	return fallback(domain.ComplexityModerate, domain.ReasonUnknownCommand)
}

// applyOverrides runs the smart-fallback rules. Low confidence is applied last
// so its reason wins over the others.
func (c *Classifier) applyOverrides(out *domain.CommandClassification, cmd domain.VoiceCommand, def *domain.CommandDefinition) {
	if c.opts.StrictMode && out.BusinessRelevance > 0.5 {
		forceFallback(out, domain.ReasonStrictMode)
	}
	if def != nil {
		for _, name := range def.RequiredEntities {
			if !cmd.HasEntity(name) {
				forceFallback(out, domain.ReasonEntityExtractionFailed)
				break
			}
		}
	}
	if cmd.Confidence < c.opts.ConfidenceThreshold {
		forceFallback(out, domain.ReasonLowConfidence)
	}
}

func fallback(complexity domain.Complexity, reason domain.FallbackReason) domain.CommandClassification {
	return domain.CommandClassification{
		Complexity:     complexity,
		ShouldFallback: true,
		FallbackReason: reason,
	}
}

func forceFallback(out *domain.CommandClassification, reason domain.FallbackReason) {
	out.CanHandle = false
	out.ShouldFallback = true
	out.FallbackReason = reason
}
