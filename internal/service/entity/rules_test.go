package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found", name)
	return Rule{}
}

func TestRules_MatchInIsolation(t *testing.T) {
	tests := []struct {
		rule  string
		text  string
		want  []string
		first domain.Span
	}{
		{"task_id", "complete task 5", []string{"5"}, domain.Span{Start: 14, End: 15}},
		{"task_id", "close ticket #ab-12 please", []string{"ab-12"}, domain.Span{Start: 14, End: 19}},
		{"email_address", "cc ops@acme.io today", []string{"ops@acme.io"}, domain.Span{Start: 3, End: 14}},
		{"iso_date", "due 2024-03-15", []string{"2024-03-15"}, domain.Span{Start: 4, End: 14}},
		{"named_recipient", "send message to John about it", []string{"John"}, domain.Span{Start: 16, End: 20}},
		{"message_about", "ping Ana about the broken forklift.", []string{"the broken forklift"}, domain.Span{Start: 15, End: 34}},
		{"message_about", "remind me about the meeting at 3pm", []string{"the meeting"}, domain.Span{Start: 16, End: 27}},
		{"message_about", "tell Bo about the audit tomorrow at 9:30", []string{"the audit"}, domain.Span{Start: 14, End: 23}},
		{"clock_time", "meet at 3:30 pm", []string{"3:30 pm"}, domain.Span{Start: 8, End: 15}},
		{"relative_date", "book it for next Friday", []string{"next Friday"}, domain.Span{Start: 12, End: 23}},
		{"priority_target", "set priority of task 3 to high", []string{"high"}, domain.Span{Start: 26, End: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.text, func(t *testing.T) {
			got := ruleByName(t, tt.rule).Match(tt.text)
			require.Len(t, got, len(tt.want))
			for i, c := range got {
				assert.Equal(t, tt.want[i], c.Value)
			}
			assert.Equal(t, tt.first, got[0].Span)
		})
	}
}

func TestRules_ClockTimeIgnoresWords(t *testing.T) {
	assert.Empty(t, ruleByName(t, "clock_time").Match("1 amazing shift"))
}

func TestRule_ApplyProcessAndValidate(t *testing.T) {
	tests := []struct {
		rule   string
		raw    string
		want   string
		wantOK bool
	}{
		{"task_id", " ab-12 ", "AB-12", true},
		{"iso_date", "2024-02-30", "", false},
		{"slash_date", "13/13", "", false},
		{"slash_date", "12/25", "12/25", true},
		{"phone_number", "12 34", "", false},
		{"priority_prefix", "ASAP", "urgent", true},
		{"status_change", "In-Progress", "in_progress", true},
		{"status_change", "finished", "completed", true},
		{"named_recipient", "Monday", "", false},
		{"named_recipient", "@Sara,", "Sara", true},
		{"project_name", "the", "", false},
		{"clock_time", "7 P.M.", "7 pm", true},
	}

	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.raw, func(t *testing.T) {
			got, ok := ruleByName(t, tt.rule).Apply(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRule_NilPatternMatchesNothing(t *testing.T) {
	r := Rule{Name: "broken", Type: domain.EntityNumber, Confidence: 1}
	assert.Nil(t, r.Match("123"))
}

func TestDefaultRules_AreWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultRules() {
		assert.False(t, seen[r.Name], "duplicate rule %s", r.Name)
		seen[r.Name] = true
		assert.NotNil(t, r.Pattern, r.Name)
		assert.NotEmpty(t, r.Type, r.Name)
		assert.True(t, r.Confidence > 0 && r.Confidence <= 1, r.Name)
	}
}
