package domain

// ActionKind selects how an action is carried out.
type ActionKind string

const (
	ActionAPICall  ActionKind = "api_call"
	ActionNavigate ActionKind = "navigate"
)

// ActionTemplate describes a side effect attached to a command definition.
// Endpoint, BodyTemplate and Route may contain {{variable}} tokens.
type ActionTemplate struct {
	Kind         ActionKind `json:"kind" yaml:"kind"`
	Endpoint     string     `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Method       string     `json:"method,omitempty" yaml:"method,omitempty"`
	BodyTemplate string     `json:"body_template,omitempty" yaml:"body_template,omitempty"`
	Route        string     `json:"route,omitempty" yaml:"route,omitempty"`
	Label        string     `json:"label,omitempty" yaml:"label,omitempty"`
}

// Action is a rendered ActionTemplate ready to be executed.
type Action struct {
	ID       string     `json:"id"`
	Kind     ActionKind `json:"kind"`
	Endpoint string     `json:"endpoint,omitempty"`
	Method   string     `json:"method,omitempty"`
	Body     string     `json:"body,omitempty"`
	Route    string     `json:"route,omitempty"`
	Label    string     `json:"label,omitempty"`
}

// ActionResult records the outcome of one executed action.
type ActionResult struct {
	ActionID   string `json:"action_id"`
	Kind       string `json:"kind"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CommandDefinition is a static registry entry.
type CommandDefinition struct {
	ID                   string          `json:"id" yaml:"id"`
	Triggers             []string        `json:"triggers" yaml:"triggers"`
	Intent               string          `json:"intent" yaml:"intent"`
	Category             string          `json:"category,omitempty" yaml:"category,omitempty"`
	Description          string          `json:"description,omitempty" yaml:"description,omitempty"`
	Complexity           Complexity      `json:"complexity" yaml:"complexity"`
	RequiresBusinessData bool            `json:"requires_business_data" yaml:"requires_business_data"`
	FallbackReason       FallbackReason  `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
	ResponseTemplate     string          `json:"response_template" yaml:"response_template"`
	Action               *ActionTemplate `json:"action,omitempty" yaml:"action,omitempty"`
	RequiredEntities     []string        `json:"required_entities,omitempty" yaml:"required_entities,omitempty"`
	Examples             []string        `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// CommandCategory groups definitions for display.
type CommandCategory struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
