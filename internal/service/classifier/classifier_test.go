package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

func defaultOptions() Options {
	return Options{
		ConfidenceThreshold:        0.7,
		BusinessRelevanceThreshold: 0.6,
		EnableSmartFallback:        true,
	}
}

func newClassifier(opts Options) *Classifier {
	return New(opts, nil, zap.NewNop())
}

func command(text string, confidence float64, entities ...domain.Entity) domain.VoiceCommand {
	cmd := domain.VoiceCommand{RawText: text, Intent: "test", Confidence: confidence, Entities: map[string]domain.Entity{}}
	for _, e := range entities {
		cmd.Entities[string(e.Type)] = e
	}
	return cmd
}

func assertExclusive(t *testing.T, c domain.CommandClassification) {
	t.Helper()
	assert.NotEqual(t, c.CanHandle, c.ShouldFallback, "exactly one of canHandle/shouldFallback must be set")
}

func TestClassify_ClockInRequiresBusinessData(t *testing.T) {
	def := &domain.CommandDefinition{ID: "clock-in", Intent: "clock_in", Complexity: domain.ComplexitySimple, RequiresBusinessData: true}
	got := newClassifier(defaultOptions()).Classify(command("clock in", 0.95), def)

	assert.False(t, got.CanHandle)
	assert.True(t, got.ShouldFallback)
	assert.Equal(t, domain.ReasonRequiresBusinessData, got.FallbackReason)
	assert.Equal(t, domain.ComplexitySimple, got.Complexity)
}

func TestClassify_DefinitionReasonKept(t *testing.T) {
	def := &domain.CommandDefinition{ID: "x", Intent: "x", RequiresBusinessData: true, FallbackReason: domain.ReasonRealTimeData}
	got := newClassifier(defaultOptions()).Classify(command("where is the truck", 0.95), def)
	assert.Equal(t, domain.ReasonRealTimeData, got.FallbackReason)
	assert.Equal(t, domain.ComplexityModerate, got.Complexity)
}

func TestClassify_HelpIsLocal(t *testing.T) {
	got := newClassifier(defaultOptions()).Classify(command("help", 0.95), nil)

	assert.True(t, got.CanHandle)
	assert.False(t, got.ShouldFallback)
	assert.Equal(t, domain.ComplexitySimple, got.Complexity)
	assert.Equal(t, domain.ReasonNone, got.FallbackReason)
	assert.Zero(t, got.BusinessRelevance)
}

func TestClassify_UnknownPathReasons(t *testing.T) {
	tests := []struct {
		text       string
		confidence float64
		reason     domain.FallbackReason
		complexity domain.Complexity
	}{
		{"what's the current overtime for the team", 0.9, domain.ReasonRealTimeData, domain.ComplexityBusiness},
		{"approve the overtime for the team", 0.9, domain.ReasonWorkflowManagement, domain.ComplexityComplex},
		{"payroll report for last month", 0.9, domain.ReasonDatabaseOperation, domain.ComplexityBusiness},
		{"do i have overtime hours", 0.9, domain.ReasonUserContext, domain.ComplexityComplex},
		{"payroll budget revenue", 0.9, domain.ReasonComplexOperation, domain.ComplexityComplex},
		{"purple elephants dance", 0.8, domain.ReasonUnknownCommand, domain.ComplexityModerate},
	}
	c := newClassifier(defaultOptions())
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := c.Classify(command(tt.text, tt.confidence), nil)
			assert.Equal(t, tt.reason, got.FallbackReason)
			assert.Equal(t, tt.complexity, got.Complexity)
			assertExclusive(t, got)
		})
	}
}

func TestClassify_LowConfidenceAlwaysWins(t *testing.T) {
	defs := []*domain.CommandDefinition{
		nil,
		{ID: "local", Intent: "greeting", Complexity: domain.ComplexitySimple},
		{ID: "biz", Intent: "x", RequiresBusinessData: true, FallbackReason: domain.ReasonWorkflowManagement},
		{ID: "req", Intent: "y", RequiredEntities: []string{"taskIdentifier"}},
	}
	texts := []string{"hello", "approve the overtime for the team", "payroll budget revenue", "complete task", ""}

	opts := defaultOptions()
	opts.StrictMode = true
	c := newClassifier(opts)
	for _, def := range defs {
		for _, text := range texts {
			for _, conf := range []float64{0, 0.2, 0.69} {
				got := c.Classify(command(text, conf), def)
				assert.True(t, got.ShouldFallback, "%q %.2f", text, conf)
				assert.Equal(t, domain.ReasonLowConfidence, got.FallbackReason, "%q %.2f", text, conf)
				assertExclusive(t, got)
			}
		}
	}
}

func TestClassify_WithoutSmartFallback(t *testing.T) {
	opts := defaultOptions()
	opts.EnableSmartFallback = false
	c := newClassifier(opts)

	def := &domain.CommandDefinition{ID: "req", Intent: "y", RequiredEntities: []string{"taskIdentifier"}}
	got := c.Classify(command("complete task", 0.3), def)
	assert.True(t, got.CanHandle, "overrides are disabled")

	got = c.Classify(command("purple elephants", 0.3), nil)
	assert.Equal(t, domain.ReasonLowConfidence, got.FallbackReason)
}

func TestClassify_RequiredEntities(t *testing.T) {
	def := &domain.CommandDefinition{ID: "complete-task", Intent: "complete_task", RequiredEntities: []string{"taskIdentifier"}}
	c := newClassifier(defaultOptions())

	got := c.Classify(command("complete task", 0.95), def)
	assert.Equal(t, domain.ReasonEntityExtractionFailed, got.FallbackReason)
	assert.Equal(t, []string{"taskIdentifier"}, got.RequiredEntities)

	got = c.Classify(command("complete task 5", 0.95, domain.Entity{Type: domain.EntityTaskIdentifier, Value: "5"}), def)
	assert.True(t, got.CanHandle)
}

func TestClassify_StrictMode(t *testing.T) {
	def := &domain.CommandDefinition{ID: "clock-in", Intent: "clock_in"}
	opts := defaultOptions()

	got := newClassifier(opts).Classify(command("clock in for my shift", 0.95), def)
	require.True(t, got.CanHandle)

	opts.StrictMode = true
	got = newClassifier(opts).Classify(command("clock in for my shift", 0.95), def)
	assert.Equal(t, domain.ReasonStrictMode, got.FallbackReason)
	assert.Greater(t, got.BusinessRelevance, 0.5)
}

func TestClassify_Deterministic(t *testing.T) {
	c := newClassifier(defaultOptions())
	cmd := command("approve overtime and payroll for the warehouse team", 0.9)
	first := c.Classify(cmd, nil)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify(cmd, nil))
	}
}

func TestRelevance(t *testing.T) {
	c := newClassifier(defaultOptions())

	score, kws := c.Relevance("where can I find the break room today")
	assert.InDelta(t, 0.4+1.0/8, score, 1e-9)
	assert.Equal(t, []string{"break"}, kws)

	score, _ = c.Relevance("shift")
	assert.Equal(t, 1.0, score)

	score, kws = c.Relevance("request time off")
	assert.Equal(t, []string{"time off"}, kws)
	assert.Equal(t, 1.0, score, "capped")

	score, kws = c.Relevance("")
	assert.Zero(t, score)
	assert.Nil(t, kws)
}

func TestRelevance_AdjacentRepeats(t *testing.T) {
	c := newClassifier(defaultOptions())

	score, kws := c.Relevance("break break where can I find the room today")
	assert.Equal(t, []string{"break"}, kws)
	assert.InDelta(t, 0.4+2.0/9, score, 1e-9)
}

func TestCountPhrase(t *testing.T) {
	tokens := strings.Fields("shift shift shift shift")
	assert.Equal(t, 4, countPhrase(tokens, []string{"shift"}))
	assert.Equal(t, 3, countPhrase(tokens, []string{"shift", "shift"}))
	assert.Equal(t, 1, countPhrase(strings.Fields("request time off now"), []string{"time", "off"}))
	assert.Zero(t, countPhrase(tokens, nil))
	assert.Zero(t, countPhrase([]string{"time"}, []string{"time", "off"}))
}

func TestWithBusinessContext(t *testing.T) {
	base := newClassifier(defaultOptions())
	score, _ := base.Relevance("dispatch the truck")
	require.Zero(t, score)

	c := base.WithBusinessContext(domain.BusinessContext{
		Domain:       "Logistics",
		Capabilities: []string{"shift scheduling", "payroll"},
	})
	score, kws := c.Relevance("dispatch the truck")
	assert.Equal(t, []string{"dispatch", "truck"}, kws)
	assert.Greater(t, score, 0.0)

	assert.Equal(t, capabilityWeight, c.Keywords()["scheduling"])
	assert.Equal(t, 0.8, c.Keywords()["shift"], "capabilities never lower an existing weight")

	_, has := base.Keywords()["dispatch"]
	assert.False(t, has, "original classifier is unchanged")
}

func TestWithKeywords(t *testing.T) {
	c := newClassifier(defaultOptions()).WithKeywords(Keywords{"Forklift": 1.4, "shift": 0.1})
	assert.Equal(t, 1.0, c.Keywords()["forklift"])
	assert.Equal(t, 0.1, c.Keywords()["shift"])
}
