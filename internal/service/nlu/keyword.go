package nlu

import (
	"context"
	"regexp"
	"strings"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

const (
	exactTriggerConfidence     = 0.95
	containedTriggerConfidence = 0.85
	unknownConfidence          = 0.2
	patternBonus               = 0.05
	maxPatternConfidence       = 0.9
)

// TriggerMatcher looks up registry trigger phrases.
type TriggerMatcher interface {
	MatchExact(text string) (domain.CommandDefinition, bool)
	Match(text string) (domain.CommandDefinition, bool)
}

type intentPattern struct {
	intent  string
	pattern *regexp.Regexp
	weight  float64
}

func p(intent string, weight float64, expr string) intentPattern {
	return intentPattern{intent: intent, weight: weight, pattern: regexp.MustCompile(`(?i)` + expr)}
}

// builtinPatterns are consulted when no registry trigger matches.
var builtinPatterns = []intentPattern{
	p("greeting", 0.8, `^\s*(?:hi|hello|hey|good\s+(?:morning|afternoon|evening))\b`),
	p("help", 0.8, `\b(?:help|what\s+can\s+you\s+do|how\s+do\s+i|commands)\b`),

	p("clock_in", 0.85, `\b(?:clock(?:ing)?|punch(?:ing)?|sign(?:ing)?)\s+(?:me\s+)?in\b`),
	p("clock_in", 0.75, `\b(?:start|begin)(?:ing)?\s+(?:my\s+|the\s+)?(?:shift|work\s*day|day)\b`),
	p("clock_out", 0.85, `\b(?:clock(?:ing)?|punch(?:ing)?|sign(?:ing)?)\s+(?:me\s+)?out\b`),
	p("clock_out", 0.75, `\b(?:end|finish)(?:ing)?\s+(?:my\s+|the\s+)?(?:shift|work\s*day|day)\b`),
	p("start_break", 0.8, `\b(?:start|take|taking|going\s+on)\s+(?:a\s+|my\s+)?(?:break|lunch)\b`),
	p("end_break", 0.8, `\b(?:end|finish)(?:ing)?\s+(?:my\s+)?(?:break|lunch)\b|\bback\s+from\s+(?:break|lunch)\b`),

	p("complete_task", 0.8, `\b(?:complete|finish|close|resolve)d?\s+(?:the\s+)?(?:task|ticket|job)\b`),
	p("complete_task", 0.75, `\bmark\b.*\b(?:done|complete|completed|finished)\b`),
	p("create_task", 0.8, `\b(?:create|add|new|make)\s+(?:a\s+)?(?:new\s+)?(?:task|ticket|to-?do)\b`),
	p("assign_task", 0.8, `\b(?:assign|reassign|delegate)\b`),
	p("assign_task", 0.6, `\bgive\b.*\b(?:task|ticket|job)\b.*\bto\b`),
	p("send_message", 0.8, `\b(?:send|write)\s+(?:a\s+)?(?:message|note|text)\b`),
	p("send_message", 0.7, `\b(?:tell|notify|ping|message|text)\s+[a-z]`),
	p("check_schedule", 0.8, `\b(?:schedule|roster|rota)\b|\bwhen\s+(?:do|am)\s+i\s+(?:work|working|on)\b|\bnext\s+shift\b`),
	p("request_time_off", 0.85, `\b(?:time|day|days)\s+off\b|\b(?:vacation|leave|pto)\b`),
	p("view_tasks", 0.8, `\b(?:show|list|view|see|what\s+are)\s+(?:me\s+)?(?:my\s+|the\s+|all\s+)?(?:open\s+)?tasks\b`),
	p("set_priority", 0.8, `\b(?:set|change|raise|lower|bump)\b.*\bpriority\b`),
	p("set_priority", 0.7, `\bmark\b.*\b(?:urgent|critical|high\s+priority|low\s+priority)\b`),
	p("navigate", 0.75, `^\s*(?:please\s+)?(?:go\s+to|open|navigate\s+to|take\s+me\s+to|show\s+me)\b`),
}

var destinationPattern = regexp.MustCompile(`(?i)\b(?:go\s+to|open|navigate\s+to|take\s+me\s+to|show\s+me)\s+(?:the\s+|my\s+)?([a-z][a-z -]{1,40}?)(?:\s+(?:page|screen|tab|view))?[\s.!?]*$`)

// KeywordProvider is the terminal local matcher. It never returns an error.
type KeywordProvider struct {
	triggers TriggerMatcher
	patterns []intentPattern
}

// NewKeywordProvider returns the local provider. triggers may be nil.
func NewKeywordProvider(triggers TriggerMatcher) *KeywordProvider {
	return &KeywordProvider{triggers: triggers, patterns: builtinPatterns}
}

func (k *KeywordProvider) ID() domain.ProviderID {
	return domain.ProviderKeywords
}

func (k *KeywordProvider) Interpret(_ context.Context, req Request) (Interpretation, error) {
	intent, confidence := k.classify(req.Text)

	entities := make(map[string]domain.Entity, len(req.Entities)+1)
	for key, e := range req.Entities {
		entities[key] = e
	}
	if intent == "navigate" {
		if _, ok := entities[string(domain.EntityDestination)]; !ok {
			if dest, ok := destination(req.Text); ok {
				entities[string(domain.EntityDestination)] = dest
			}
		}
	}

	return Interpretation{
		Intent:     intent,
		Entities:   entities,
		Confidence: confidence,
	}, nil
}

func (k *KeywordProvider) classify(text string) (string, float64) {
	if k.triggers != nil {
		if def, ok := k.triggers.MatchExact(text); ok {
			return def.Intent, exactTriggerConfidence
		}
		if def, ok := k.triggers.Match(text); ok {
			return def.Intent, containedTriggerConfidence
		}
	}

	best, bestScore := "", 0.0
	hits := map[string]int{}
	scores := map[string]float64{}
	var order []string
	for _, ip := range k.patterns {
		if !ip.pattern.MatchString(text) {
			continue
		}
		if hits[ip.intent] == 0 {
			order = append(order, ip.intent)
		}
		hits[ip.intent]++
		if ip.weight > scores[ip.intent] {
			scores[ip.intent] = ip.weight
		}
	}
	for _, intent := range order {
		score := scores[intent] + patternBonus*float64(hits[intent]-1)
		if score > maxPatternConfidence {
			score = maxPatternConfidence
		}
		if score > bestScore {
			best, bestScore = intent, score
		}
	}
	if best == "" {
		return domain.IntentUnknown, unknownConfidence
	}
	return best, bestScore
}

func destination(text string) (domain.Entity, bool) {
	m := destinationPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return domain.Entity{}, false
	}
	raw := strings.TrimSpace(text[m[2]:m[3]])
	if raw == "" {
		return domain.Entity{}, false
	}
	value := strings.Join(strings.Fields(strings.ToLower(raw)), "-")
	return domain.Entity{
		Type:       domain.EntityDestination,
		Value:      value,
		Confidence: 0.8,
		SourceText: raw,
		Span:       &domain.Span{Start: m[2], End: m[3]},
	}, true
}
