package entity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

const (
	contextBonus      = 0.05
	weakContextBonus  = 0.03
	impliedMessageMin = 2
)

var (
	completionVerb = regexp.MustCompile(`(?i)\b(?:complete|completed|finish|finished|close|closed|done|resolve|resolved|mark)\b`)
	assignVerb     = regexp.MustCompile(`(?i)\b(?:assign|reassign|give|hand)\b`)
	messagingVerb  = regexp.MustCompile(`(?i)\b(?:send|message|tell|notify|ping|text|email|remind|let)\b`)
	scheduleWord   = regexp.MustCompile(`(?i)\b(?:schedule|book|meeting|shift|due|deadline|remind|time off|day off|vacation|leave|at|on|by)\b`)
	priorityWord   = regexp.MustCompile(`(?i)\b(?:priority|set|change|raise|lower|bump)\b`)
	workWord       = regexp.MustCompile(`(?i)\b(?:task|tasks|status|update|progress|board|sprint)\b`)
	taskWord       = regexp.MustCompile(`(?i)\btask\b`)
	sendMessage    = regexp.MustCompile(`(?i)\bsend\s+(?:a\s+)?message\b`)
	notifyVerb     = regexp.MustCompile(`(?i)\b(?:tell|notify|message)\b`)
	bookingVerb    = regexp.MustCompile(`(?i)\b(?:schedule|book)\b|\brequest\s+(?:some\s+)?(?:time|day)s?\s+off\b`)
	changePriority = regexp.MustCompile(`(?i)\b(?:set|change|update)\b[^.]*\bpriority\b`)
	leadIn         = regexp.MustCompile(`(?i)^(?:that|saying|to say|and say|and tell (?:him|her|them))\s+`)
)

// contextBoosts pairs an entity type with the keywords that make it more credible.
var contextBoosts = []struct {
	types   []domain.EntityType
	pattern *regexp.Regexp
	bonus   float64
}{
	{[]domain.EntityType{domain.EntityTaskIdentifier}, completionVerb, contextBonus},
	{[]domain.EntityType{domain.EntityRecipient}, messagingVerb, contextBonus},
	{[]domain.EntityType{domain.EntityDate, domain.EntityTime}, scheduleWord, contextBonus},
	{[]domain.EntityType{domain.EntityPriority}, priorityWord, contextBonus},
	{[]domain.EntityType{domain.EntityProject}, workWord, weakContextBonus},
}

func applyContextBonus(x *extraction) {
	for key, e := range x.slots {
		for _, b := range contextBoosts {
			if !containsType(b.types, e.Type) || !b.pattern.MatchString(x.text) {
				continue
			}
			e.Confidence += b.bonus
			if e.Confidence > 1 {
				e.Confidence = 1
			}
		}
		x.slots[key] = e
	}
}

func containsType(types []domain.EntityType, t domain.EntityType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// deriveImplied fills empty slots that follow from entities already accepted.
func deriveImplied(x *extraction) {
	if !x.has(domain.EntityMessageContent) {
		if r, ok := x.slots[string(domain.EntityRecipient)]; ok && r.Span != nil {
			impliedMessage(x, *r.Span)
		}
	}
	if !x.has(domain.EntityStatus) && x.has(domain.EntityTaskIdentifier) && completionVerb.MatchString(x.text) {
		x.add(domain.Entity{
			Type:       domain.EntityStatus,
			Value:      "completed",
			Confidence: 0.7,
			SourceText: completionVerb.FindString(x.text),
		})
	}
}

// impliedMessage treats whatever follows the recipient as the message body,
// e.g. "tell Sara the truck is late".
func impliedMessage(x *extraction, recipient domain.Span) {
	rest := x.text[recipient.End:]
	trimmed := strings.TrimLeft(rest, " ,:;")
	start := recipient.End + len(rest) - len(trimmed)

	body := leadIn.ReplaceAllString(trimmed, "")
	start += len(trimmed) - len(body)
	body = strings.TrimRight(body, " .!?")
	if len(strings.Fields(body)) < impliedMessageMin {
		return
	}
	x.add(domain.Entity{
		Type:       domain.EntityMessageContent,
		Value:      body,
		Confidence: 0.65,
		SourceText: body,
		Span:       &domain.Span{Start: start, End: start + len(body)},
	})
}

// missingRequired reports slots the phrasing calls for but extraction did not fill.
func missingRequired(text string, x *extraction) []string {
	var missing []string
	flag := func(t domain.EntityType, needed bool) {
		if needed && !x.has(t) {
			missing = append(missing, string(t))
		}
	}

	flag(domain.EntityTaskIdentifier,
		(completionVerb.MatchString(text) || assignVerb.MatchString(text)) && taskWord.MatchString(text))
	flag(domain.EntityRecipient, sendMessage.MatchString(text) || notifyVerb.MatchString(text))
	flag(domain.EntityMessageContent, sendMessage.MatchString(text))
	if bookingVerb.MatchString(text) && !x.has(domain.EntityDate) && !x.has(domain.EntityTime) {
		missing = append(missing, string(domain.EntityDate))
	}
	flag(domain.EntityPriority, changePriority.MatchString(text))

	sort.Strings(missing)
	return missing
}
