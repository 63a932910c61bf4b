package domain

import (
	"time"
)

// EntityType identifies the kind of value pulled out of a transcript.
// The string value doubles as the slot key inside VoiceCommand.Entities.
type EntityType string

const (
	EntityTaskIdentifier EntityType = "taskIdentifier"
	EntityRecipient      EntityType = "recipient"
	EntityMessageContent EntityType = "messageContent"
	EntityProject        EntityType = "project"
	EntityPriority       EntityType = "priority"
	EntityDate           EntityType = "date"
	EntityTime           EntityType = "time"
	EntityDuration       EntityType = "duration"
	EntityStatus         EntityType = "status"
	EntityLocation       EntityType = "location"
	EntityEmail          EntityType = "email"
	EntityPhone          EntityType = "phone"
	EntityNumber         EntityType = "number"
	EntityDestination    EntityType = "destination"
)

// Span is a half-open [Start, End) byte range into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Entity is a structured value extracted from free text.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	SourceText string     `json:"source_text"`
	Span       *Span      `json:"span,omitempty"` // nil for implied entities
}

// EntityExtractionResult is the output of one extraction pass.
type EntityExtractionResult struct {
	Entities        map[string]Entity `json:"entities"`
	Confidence      float64           `json:"confidence"`
	MissingRequired []string          `json:"missing_required,omitempty"`
}

type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
	ProviderKeywords  ProviderID = "keywords"
)

type ProviderStatus string

const (
	ProviderStatusAvailable ProviderStatus = "available"
	ProviderStatusError     ProviderStatus = "error"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "SIMPLE"
	ComplexityModerate Complexity = "MODERATE"
	ComplexityComplex  Complexity = "COMPLEX"
	ComplexityBusiness Complexity = "BUSINESS_CRITICAL"
)

// IntentUnknown is returned when no provider recognised the transcript.
const IntentUnknown = "unknown"

// VoiceCommand is created once per transcript.
type VoiceCommand struct {
	ID         string            `json:"id"`
	Intent     string            `json:"intent"`
	Entities   map[string]Entity `json:"entities"`
	Confidence float64           `json:"confidence"`
	RawText    string            `json:"raw_text"`
	Timestamp  time.Time         `json:"timestamp"`
	Provider   ProviderID        `json:"provider,omitempty"`
	Complexity Complexity        `json:"complexity,omitempty"`
}

// HasEntity reports whether an entity slot, or any slot holding that entity type, is filled.
func (c VoiceCommand) HasEntity(name string) bool {
	if _, ok := c.Entities[name]; ok {
		return true
	}
	for _, e := range c.Entities {
		if string(e.Type) == name {
			return true
		}
	}
	return false
}

// FallbackReason explains why a command is deferred to a business system.
type FallbackReason string

const (
	ReasonNone                   FallbackReason = ""
	ReasonLowConfidence          FallbackReason = "low_confidence"
	ReasonUnknownCommand         FallbackReason = "unknown_command"
	ReasonRequiresBusinessData   FallbackReason = "requires_business_data"
	ReasonRealTimeData           FallbackReason = "requires_real_time_data"
	ReasonWorkflowManagement     FallbackReason = "requires_workflow_management"
	ReasonDatabaseOperation      FallbackReason = "requires_database_operation"
	ReasonUserContext            FallbackReason = "requires_user_context"
	ReasonComplexOperation       FallbackReason = "complex_operation"
	ReasonEntityExtractionFailed FallbackReason = "entity_extraction_failed"
	ReasonStrictMode             FallbackReason = "strict_mode_business_relevance"
	ReasonInternalError          FallbackReason = "internal_error"
)

// CommandClassification is derived per command and never stored.
// Exactly one of CanHandle and ShouldFallback is true.
type CommandClassification struct {
	Complexity        Complexity     `json:"complexity"`
	CanHandle         bool           `json:"can_handle"`
	ShouldFallback    bool           `json:"should_fallback"`
	FallbackReason    FallbackReason `json:"fallback_reason,omitempty"`
	Confidence        float64        `json:"confidence"`
	BusinessRelevance float64        `json:"business_relevance"`
	RequiredEntities  []string       `json:"required_entities,omitempty"`
	DetectedKeywords  []string       `json:"detected_keywords,omitempty"`
}

// VoiceResponse is the terminal artifact of one pipeline run.
type VoiceResponse struct {
	Text           string                 `json:"text"`
	Success        bool                   `json:"success"`
	CanHandle      bool                   `json:"can_handle"`
	ShouldFallback bool                   `json:"should_fallback"`
	FallbackReason FallbackReason         `json:"fallback_reason,omitempty"`
	Actions        []Action               `json:"actions,omitempty"`
	Suggestions    []string               `json:"suggestions,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionListening  SessionState = "listening"
	SessionProcessing SessionState = "processing"
)

// HistoryEntry is one opaque record in a session's append-only history.
type HistoryEntry struct {
	Command        VoiceCommand          `json:"command"`
	Classification CommandClassification `json:"classification"`
	Response       VoiceResponse         `json:"response"`
	RecordedAt     time.Time             `json:"recorded_at"`
}
