package entity

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

// Rule is one declarative extraction pattern. The value of a match is the first
// non-empty capture group, or the whole match when the pattern has no groups.
type Rule struct {
	Name       string
	Pattern    *regexp.Regexp
	Type       domain.EntityType
	Confidence float64
	Priority   int
	Process    func(string) string
	Validate   func(string) bool
}

// Candidate is a raw match of a rule before cleanup and validation.
type Candidate struct {
	Value  string
	Source string
	Span   domain.Span
}

// Match returns every candidate the rule finds in text, in order of appearance.
func (r Rule) Match(text string) []Candidate {
	if r.Pattern == nil {
		return nil
	}
	var out []Candidate
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 && loc[g+1] > loc[g] {
				start, end = loc[g], loc[g+1]
				break
			}
		}
		if end <= start {
			continue
		}
		out = append(out, Candidate{
			Value:  text[start:end],
			Source: text[loc[0]:loc[1]],
			Span:   domain.Span{Start: start, End: end},
		})
	}
	return out
}

// Apply runs the optional processor then the optional validator.
func (r Rule) Apply(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if r.Process != nil {
		value = r.Process(value)
	}
	if value == "" {
		return "", false
	}
	if r.Validate != nil && !r.Validate(value) {
		return "", false
	}
	return value, true
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "me": true, "my": true, "you": true, "your": true,
	"him": true, "her": true, "them": true, "us": true, "it": true, "this": true, "that": true,
	"about": true, "to": true, "for": true, "with": true, "and": true, "or": true, "i": true,
	"status": true, "update": true, "updates": true, "deadline": true, "list": true, "board": true,
	"is": true, "was": true, "be": true, "all": true, "some": true, "any": true,
}

// nonNames are capitalised words that frequently follow "to"/"for" but are not people.
var nonNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true, "january": true, "february": true, "march": true,
	"april": true, "may": true, "june": true, "july": true, "august": true, "september": true,
	"october": true, "november": true, "december": true, "today": true, "tomorrow": true,
	"tonight": true, "project": true, "task": true, "ticket": true, "high": true, "low": true,
	"medium": true, "normal": true, "urgent": true, "critical": true, "done": true,
	"complete": true, "completed": true, "blocked": true, "pending": true, "open": true,
	"closed": true, "i": true, "the": true, "next": true, "this": true, "last": true,
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-' && r != '#'
	})
}

func notStopWord(s string) bool {
	return !stopWords[strings.ToLower(s)]
}

func looksLikeName(s string) bool {
	first := strings.Fields(s)
	if len(first) == 0 {
		return false
	}
	return !nonNames[strings.ToLower(strings.TrimPrefix(first[0], "@"))]
}

func normalizePriority(s string) string {
	switch v := strings.ToLower(s); v {
	case "asap", "urgently":
		return "urgent"
	default:
		return v
	}
}

func normalizeStatus(s string) string {
	v := strings.ToLower(s)
	v = strings.NewReplacer("-", " ").Replace(v)
	switch strings.Join(strings.Fields(v), " ") {
	case "done", "complete", "completed", "finished":
		return "completed"
	case "in progress":
		return "in_progress"
	case "to do", "todo":
		return "todo"
	case "on hold":
		return "on_hold"
	default:
		return strings.Join(strings.Fields(v), "_")
	}
}

func validISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validSlashDate(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return false
	}
	a, b := atoi(parts[0]), atoi(parts[1])
	// accept both month/day and day/month orderings
	return a >= 1 && b >= 1 && a <= 31 && b <= 31 && (a <= 12 || b <= 12)
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const weekdays = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`

// trailingWhen is a time or date clause at the end of a message. The message
// capture stops in front of it so the clock and date rules still see it.
const trailingWhen = `(?:\s+(?:(?:at|by|on|before|after|until|around)\s+)?(?:` +
	`\d{1,2}(?::[0-5]\d)?\s*(?:[ap]m|[ap]\.m\.?)|(?:[01]?\d|2[0-3]):[0-5]\d|` +
	`(?:next|this|last)\s+(?:week|month|` + weekdays + `)|today|tomorrow|tonight|yesterday|` + weekdays + `|` +
	`\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{4}-\d{2}-\d{2}))*`

// DefaultRules returns the built-in workforce extraction rules. Order within equal
// priorities is preserved by the engine.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "task_id",
			Pattern:    regexp.MustCompile(`(?i)\b(?:task|ticket|item|issue|job|todo)\s*(?:#\s*|number\s+|no\.?\s*|id\s+)?([a-z]{0,5}-?\d+)\b`),
			Type:       domain.EntityTaskIdentifier,
			Confidence: 0.95,
			Priority:   100,
			Process:    strings.ToUpper,
		},
		{
			Name:       "email_address",
			Pattern:    regexp.MustCompile(`(?i)\b([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})\b`),
			Type:       domain.EntityEmail,
			Confidence: 0.95,
			Priority:   98,
			Process:    strings.ToLower,
		},
		{
			Name:       "iso_date",
			Pattern:    regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
			Type:       domain.EntityDate,
			Confidence: 0.95,
			Priority:   96,
			Validate:   validISODate,
		},
		{
			Name:       "phone_number",
			Pattern:    regexp.MustCompile(`(\+?\d[\d\s().-]{6,}\d)`),
			Type:       domain.EntityPhone,
			Confidence: 0.85,
			Priority:   92,
			Process:    collapseSpaces,
			Validate:   validPhone,
		},
		{
			Name:       "hash_reference",
			Pattern:    regexp.MustCompile(`(?:^|\s)#(\d+)\b`),
			Type:       domain.EntityTaskIdentifier,
			Confidence: 0.85,
			Priority:   90,
		},
		{
			Name:       "quoted_message",
			Pattern:    regexp.MustCompile(`["“]([^"”]{2,})["”]`),
			Type:       domain.EntityMessageContent,
			Confidence: 0.9,
			Priority:   88,
		},
		{
			Name:       "named_recipient",
			Pattern:    regexp.MustCompile(`\b(?i:to|for|with|tell|ask|notify|remind|message|ping|call)\s+(@?[A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)?)`),
			Type:       domain.EntityRecipient,
			Confidence: 0.9,
			Priority:   85,
			Process: func(s string) string {
				return strings.TrimPrefix(trimPunct(s), "@")
			},
			Validate: looksLikeName,
		},
		{
			Name:       "project_name",
			Pattern:    regexp.MustCompile(`(?i)\bproject\s+(?:called\s+|named\s+)?([a-z0-9][\w-]*)`),
			Type:       domain.EntityProject,
			Confidence: 0.85,
			Priority:   80,
			Process:    trimPunct,
			Validate:   notStopWord,
		},
		{
			Name:       "project_suffix",
			Pattern:    regexp.MustCompile(`(?i)\b(?:on|for|in|to)\s+(?:the\s+)?([a-z0-9][\w-]*)\s+project\b`),
			Type:       domain.EntityProject,
			Confidence: 0.8,
			Priority:   79,
			Validate:   notStopWord,
		},
		{
			Name:       "priority_prefix",
			Pattern:    regexp.MustCompile(`(?i)\b(urgent|critical|high|medium|normal|low)[\s-]+priority\b`),
			Type:       domain.EntityPriority,
			Confidence: 0.9,
			Priority:   75,
			Process:    normalizePriority,
		},
		{
			Name:       "priority_suffix",
			Pattern:    regexp.MustCompile(`(?i)\bpriority\s+(?:to\s+|of\s+|as\s+|is\s+)?(urgent|critical|high|medium|normal|low)\b`),
			Type:       domain.EntityPriority,
			Confidence: 0.9,
			Priority:   75,
			Process:    normalizePriority,
		},
		{
			Name:       "priority_target",
			Pattern:    regexp.MustCompile(`(?i)\bpriority\b.*?\b(?:to|as)\s+(urgent|critical|high|medium|normal|low)\b`),
			Type:       domain.EntityPriority,
			Confidence: 0.85,
			Priority:   75,
			Process:    normalizePriority,
		},
		{
			Name:       "urgency_word",
			Pattern:    regexp.MustCompile(`(?i)\b(urgent|urgently|asap|critical)\b`),
			Type:       domain.EntityPriority,
			Confidence: 0.75,
			Priority:   74,
			Process:    normalizePriority,
		},
		{
			Name:       "message_about",
			Pattern:    regexp.MustCompile(`(?i)\b(?:about|regarding|saying|that says)\s+(.+?)` + trailingWhen + `[\s.!?]*$`),
			Type:       domain.EntityMessageContent,
			Confidence: 0.8,
			Priority:   70,
		},
		{
			Name:       "slash_date",
			Pattern:    regexp.MustCompile(`\b(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`),
			Type:       domain.EntityDate,
			Confidence: 0.85,
			Priority:   66,
			Validate:   validSlashDate,
		},
		{
			Name:       "relative_date",
			Pattern:    regexp.MustCompile(`(?i)\b((?:next|this|last)\s+(?:week|month|` + weekdays + `)|today|tomorrow|tonight|yesterday|` + weekdays + `)\b`),
			Type:       domain.EntityDate,
			Confidence: 0.85,
			Priority:   65,
			Process: func(s string) string {
				return collapseSpaces(strings.ToLower(s))
			},
		},
		{
			Name:       "clock_time",
			Pattern:    regexp.MustCompile(`(?i)\b(\d{1,2}(?::[0-5]\d)?\s*(?:[ap]m\b|[ap]\.m\.?))`),
			Type:       domain.EntityTime,
			Confidence: 0.9,
			Priority:   64,
			Process: func(s string) string {
				return strings.ReplaceAll(strings.ToLower(collapseSpaces(s)), ".", "")
			},
		},
		{
			Name:       "twenty_four_hour_time",
			Pattern:    regexp.MustCompile(`\b((?:[01]?\d|2[0-3]):[0-5]\d)\b`),
			Type:       domain.EntityTime,
			Confidence: 0.85,
			Priority:   63,
		},
		{
			Name:       "numeric_duration",
			Pattern:    regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*(?:minutes?|mins?|hours?|hrs?|days?|weeks?))\b`),
			Type:       domain.EntityDuration,
			Confidence: 0.85,
			Priority:   62,
			Process: func(s string) string {
				return collapseSpaces(strings.ToLower(s))
			},
		},
		{
			Name:       "spoken_duration",
			Pattern:    regexp.MustCompile(`(?i)\b((?:an?|one|two|three|half\s+an?)\s+(?:minute|hour|day|week)s?)\b`),
			Type:       domain.EntityDuration,
			Confidence: 0.75,
			Priority:   61,
			Process: func(s string) string {
				return collapseSpaces(strings.ToLower(s))
			},
		},
		{
			Name:       "recipient_after_verb",
			Pattern:    regexp.MustCompile(`(?i)\b(?:message|tell|notify|ping|text|email|call)\s+(?:to\s+)?([a-z][a-z'-]+)\b`),
			Type:       domain.EntityRecipient,
			Confidence: 0.7,
			Priority:   60,
			Validate:   notStopWord,
		},
		{
			Name:       "status_change",
			Pattern:    regexp.MustCompile(`(?i)\b(?:mark|set|move|change|update)\b[^.]*?\b(?:as|to|into)\s+(done|completed?|finished|in[\s-]progress|blocked|to[\s-]?do|pending|open|closed|on[\s-]hold)\b`),
			Type:       domain.EntityStatus,
			Confidence: 0.85,
			Priority:   55,
			Process:    normalizeStatus,
		},
		{
			Name:       "work_location",
			Pattern:    regexp.MustCompile(`(?i)\b(?:at|in|from)\s+(?:the\s+)?(office|warehouse|job\s+site|site|home|headquarters|hq|store|branch|depot|clinic|kitchen|front\s+desk|building\s+[a-z0-9]+)\b`),
			Type:       domain.EntityLocation,
			Confidence: 0.75,
			Priority:   50,
			Process: func(s string) string {
				return collapseSpaces(strings.ToLower(s))
			},
		},
		{
			Name:       "day_part",
			Pattern:    regexp.MustCompile(`(?i)\b(noon|midnight|morning|afternoon|evening)\b`),
			Type:       domain.EntityTime,
			Confidence: 0.7,
			Priority:   40,
			Process:    strings.ToLower,
		},
		{
			Name:       "bare_number",
			Pattern:    regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`),
			Type:       domain.EntityNumber,
			Confidence: 0.6,
			Priority:   10,
		},
	}
}
