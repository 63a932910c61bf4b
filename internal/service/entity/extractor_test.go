package entity

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

func newTestExtractor(rules ...Rule) *Extractor {
	return NewExtractor(DefaultOptions(), zap.NewNop(), rules...)
}

func TestExtract_CompleteTask(t *testing.T) {
	res := newTestExtractor().Extract("complete task 5")

	task, ok := res.Entities[string(domain.EntityTaskIdentifier)]
	require.True(t, ok)
	assert.Equal(t, "5", task.Value)
	assert.GreaterOrEqual(t, task.Confidence, 0.9)
	assert.Equal(t, "completed", res.Entities[string(domain.EntityStatus)].Value)
	assert.Empty(t, res.MissingRequired)
	_, hasNumber := res.Entities[string(domain.EntityNumber)]
	assert.False(t, hasNumber, "digit already claimed by the task identifier")
}

func TestExtract_MessageToRecipient(t *testing.T) {
	res := newTestExtractor().Extract("send message to John about the delay")

	require.Contains(t, res.Entities, string(domain.EntityRecipient))
	assert.Equal(t, "John", res.Entities[string(domain.EntityRecipient)].Value)
	require.Contains(t, res.Entities, string(domain.EntityMessageContent))
	assert.Contains(t, res.Entities[string(domain.EntityMessageContent)].Value, "delay")
	assert.Empty(t, res.MissingRequired)
}

func TestExtract_MessageLeavesTrailingTime(t *testing.T) {
	res := newTestExtractor().Extract("remind me about the meeting at 3pm")

	assert.Equal(t, "the meeting", res.Entities[string(domain.EntityMessageContent)].Value)
	require.Contains(t, res.Entities, string(domain.EntityTime))
	assert.Equal(t, "3pm", res.Entities[string(domain.EntityTime)].Value)

	res = newTestExtractor().Extract("message Ana about the late truck next friday")
	assert.Equal(t, "the late truck", res.Entities[string(domain.EntityMessageContent)].Value)
	assert.Equal(t, "next friday", res.Entities[string(domain.EntityDate)].Value)
}

func TestExtract_ImpliedMessageContent(t *testing.T) {
	res := newTestExtractor().Extract("tell Sara the truck is running late")

	assert.Equal(t, "Sara", res.Entities[string(domain.EntityRecipient)].Value)
	msg, ok := res.Entities[string(domain.EntityMessageContent)]
	require.True(t, ok)
	assert.Equal(t, "the truck is running late", msg.Value)
	assert.InDelta(t, 0.65, msg.Confidence, 1e-9)
}

func TestExtract_ContextBonusIsCapped(t *testing.T) {
	res := newTestExtractor().Extract("finish task 7")
	assert.LessOrEqual(t, res.Entities[string(domain.EntityTaskIdentifier)].Confidence, 1.0)
	assert.InDelta(t, 1.0, res.Entities[string(domain.EntityTaskIdentifier)].Confidence, 1e-9)
}

func TestExtract_NoContextPass(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableContext = false
	res := NewExtractor(opts, nil).Extract("finish task 7")

	assert.InDelta(t, 0.95, res.Entities[string(domain.EntityTaskIdentifier)].Confidence, 1e-9)
	assert.NotContains(t, res.Entities, string(domain.EntityStatus))
}

func TestExtract_MissingRequired(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"complete the task", []string{"taskIdentifier"}},
		{"send a message", []string{"messageContent", "recipient"}},
		{"schedule a meeting", []string{"date"}},
		{"schedule a meeting tomorrow", nil},
		{"change the priority", []string{"priority"}},
		{"hello there", nil},
	}
	ex := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ex.Extract(tt.text).MissingRequired)
		})
	}
}

func TestExtract_SuffixedSlotsAndPerTypeCap(t *testing.T) {
	digit := Rule{
		Name:       "digit",
		Pattern:    regexp.MustCompile(`(\d)`),
		Type:       domain.EntityNumber,
		Confidence: 0.8,
		Priority:   1,
	}
	opts := DefaultOptions()
	opts.MaxEntitiesPerType = 2
	res := NewExtractor(opts, zap.NewNop(), digit).Extract("1 2 3 4")

	require.Len(t, res.Entities, 2)
	assert.Equal(t, "1", res.Entities["number"].Value)
	assert.Equal(t, "2", res.Entities["number_2"].Value)
}

func TestExtract_GlobalCap(t *testing.T) {
	var rules []Rule
	for _, typ := range []domain.EntityType{domain.EntityNumber, domain.EntityDuration, domain.EntityLocation,
		domain.EntityStatus, domain.EntityProject, domain.EntityPriority, domain.EntityDate, domain.EntityTime} {
		rules = append(rules, Rule{
			Name:       string(typ),
			Pattern:    regexp.MustCompile(`(\d+)`),
			Type:       typ,
			Confidence: 0.9,
			Priority:   1,
		})
	}
	opts := DefaultOptions()
	opts.EnableContext = false
	text := strings.Repeat("1 ", 100)
	res := NewExtractor(opts, zap.NewNop(), rules...).Extract(text)

	assert.Len(t, res.Entities, 20)
}

func TestExtract_ThresholdDropsWeakRules(t *testing.T) {
	opts := DefaultOptions()
	opts.ConfidenceThreshold = 0.65
	res := NewExtractor(opts, zap.NewNop()).Extract("we need 42 boxes")
	assert.NotContains(t, res.Entities, string(domain.EntityNumber))
	assert.Zero(t, res.Confidence)
}

func TestExtract_HigherPriorityClaimsSpanFirst(t *testing.T) {
	low := Rule{Name: "low", Pattern: regexp.MustCompile(`(\d+)`), Type: domain.EntityNumber, Confidence: 0.9, Priority: 1}
	high := Rule{Name: "high", Pattern: regexp.MustCompile(`(\d+)`), Type: domain.EntityDuration, Confidence: 0.6, Priority: 9}
	res := NewExtractor(Options{EnableContext: false}, zap.NewNop(), low, high).Extract("42")

	require.Len(t, res.Entities, 1)
	assert.Equal(t, domain.EntityDuration, res.Entities["duration"].Type)
}

func TestExtract_MeanConfidence(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableContext = false
	res := NewExtractor(opts, zap.NewNop()).Extract("call bob at 5pm")

	require.Len(t, res.Entities, 2)
	assert.InDelta(t, (0.7+0.9)/2, res.Confidence, 1e-9)
}

func TestExtract_EmptyText(t *testing.T) {
	res := newTestExtractor().Extract("")
	assert.Empty(t, res.Entities)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.MissingRequired)
}

func TestExtract_NeverOverlaps(t *testing.T) {
	inputs := []string{
		"complete task 5",
		"send message to John about the delay",
		"assign task ABC-123 to Maria Lopez for project apollo with high priority by tomorrow at 3pm",
		"email ops@acme.io about invoice #42 due 2024-05-01 or call +1 555 123 4567",
		"mark task 9 as in progress and tell Sam \"the crane is fixed\"",
		"book 2 hours at the warehouse next monday morning 09:30",
		"1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25",
		"urgent urgent urgent asap critical priority high",
	}
	ex := newTestExtractor()
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			res := ex.Extract(in)
			assert.LessOrEqual(t, len(res.Entities), 20)
			var spans []domain.Span
			for _, e := range res.Entities {
				if e.Span == nil {
					continue
				}
				for _, s := range spans {
					assert.False(t, s.Overlaps(*e.Span), "%v overlaps %v in %q", s, *e.Span, in)
				}
				spans = append(spans, *e.Span)
				assert.NotEmpty(t, in[e.Span.Start:e.Span.End])
			}
			perType := map[domain.EntityType]int{}
			for _, e := range res.Entities {
				perType[e.Type]++
			}
			for typ, n := range perType {
				assert.LessOrEqual(t, n, 3, string(typ))
			}
		})
	}
}
