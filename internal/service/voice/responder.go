package voice

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/service/render"
)

// Generic templates for commands without a usable definition.
const (
	helpTemplate          = "Hi, I'm the {{businessName}} assistant. I can clock you in and out, manage breaks and tasks, and message your team."
	greetingTemplate      = "Hello! How can I help you today?"
	handoffTemplate       = "I'll pass that on to {{businessName}} so the right system can take care of it."
	lowConfidenceTemplate = "Sorry, I'm not sure I understood that. Could you say it another way?"
	unknownTemplate       = "I can't do that yet. Say \"help\" to hear what I can do."
	missingTemplate       = "I need a little more detail to do that. Please include the {{missing}}."
	internalErrorText     = "Something went wrong on my side. Please try again."
)

var genericSuggestions = []string{
	"clock in",
	"start my break",
	"show my tasks",
	"help",
}

// entityLabels turn slot names into words for spoken prompts.
var entityLabels = map[string]string{
	string(domain.EntityTaskIdentifier): "task number",
	string(domain.EntityRecipient):      "person to contact",
	string(domain.EntityMessageContent): "message",
	string(domain.EntityPriority):       "priority",
	string(domain.EntityDate):           "date",
	string(domain.EntityTime):           "time",
	string(domain.EntityDestination):    "page",
}

func (a *Assistant) respond(p *pipeline, cmd domain.VoiceCommand, cls domain.CommandClassification, def *domain.CommandDefinition) domain.VoiceResponse {
	overlay := entityOverlay(cmd)
	overlay["missing"] = missingLabel(cmd, def)

	template := a.template(cmd, cls, def)
	rendered := a.renderer.Render(template, renderOptions(overlay))

	resp := domain.VoiceResponse{
		Text:           strings.TrimSpace(rendered.Text),
		Success:        succeeded(cls),
		CanHandle:      cls.CanHandle,
		ShouldFallback: cls.ShouldFallback,
		FallbackReason: cls.FallbackReason,
		Metadata: map[string]interface{}{
			"commandId":  cmd.ID,
			"intent":     cmd.Intent,
			"confidence": cmd.Confidence,
			"provider":   string(cmd.Provider),
			"complexity": string(cls.Complexity),
			"relevance":  cls.BusinessRelevance,
			"render":     rendered.Metrics,
		},
	}
	if def != nil {
		resp.Metadata["definitionId"] = def.ID
	}

	if def != nil && def.Action != nil && cls.CanHandle {
		action, unresolved := a.renderAction(*def.Action, overlay)
		if len(unresolved) == 0 {
			resp.Actions = []domain.Action{action}
		} else {
			a.log.Warn("Dropping action with unresolved variables",
				zap.String("definition", def.ID),
				zap.Strings("unresolved", unresolved))
			resp.Metadata["unresolvedAction"] = unresolved
		}
	}

	if cls.ShouldFallback || cmd.Intent == "help" || cmd.Intent == domain.IntentUnknown {
		resp.Suggestions = a.suggestions(p.cfg.SuggestionCount)
	}
	return resp
}

// template picks the text to render. A matched definition supplies its own
// template unless the command was rejected for missing detail or low confidence.
func (a *Assistant) template(cmd domain.VoiceCommand, cls domain.CommandClassification, def *domain.CommandDefinition) string {
	switch cls.FallbackReason {
	case domain.ReasonLowConfidence:
		return lowConfidenceTemplate
	case domain.ReasonEntityExtractionFailed:
		return missingTemplate
	}
	if def != nil && def.ResponseTemplate != "" {
		return def.ResponseTemplate
	}

	switch {
	case cmd.Intent == "help":
		return helpTemplate
	case cmd.Intent == "greeting":
		return greetingTemplate
	case cls.CanHandle && cls.Complexity == domain.ComplexitySimple:
		return helpTemplate
	case cls.FallbackReason == domain.ReasonUnknownCommand:
		return unknownTemplate
	case cls.ShouldFallback:
		return handoffTemplate
	default:
		return unknownTemplate
	}
}

// renderAction fills an action template. Path values are URL-escaped and body
// values JSON-escaped. Unresolved tokens in the endpoint or route are returned
// and the action must not be sent; empty body fields they leave are dropped.
func (a *Assistant) renderAction(t domain.ActionTemplate, overlay map[string]string) (domain.Action, []string) {
	var unresolved []string
	r := func(s string, escape func(string) string) (string, []string) {
		if s == "" {
			return "", nil
		}
		opts := renderOptions(overlay)
		opts.PreserveUnknown = false
		opts.Escape = escape
		res := a.renderer.Render(s, opts)
		return res.Text, res.Metrics.Unresolved
	}

	endpoint, missing := r(t.Endpoint, url.PathEscape)
	unresolved = append(unresolved, missing...)
	route, missing := r(t.Route, url.PathEscape)
	unresolved = append(unresolved, missing...)

	body, missing := r(t.BodyTemplate, jsonEscape)
	if len(missing) > 0 {
		compacted, err := dropEmptyFields(body)
		if err != nil {
			unresolved = append(unresolved, missing...)
		}
		body = compacted
	}
	label, _ := r(t.Label, nil)

	return domain.Action{
		ID:       uuid.NewString(),
		Kind:     t.Kind,
		Endpoint: endpoint,
		Method:   strings.ToUpper(t.Method),
		Body:     body,
		Route:    route,
		Label:    label,
	}, unresolved
}

// jsonEscape returns s as the inside of a JSON string literal.
func jsonEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return ""
	}
	quoted := strings.TrimSuffix(buf.String(), "\n")
	return quoted[1 : len(quoted)-1]
}

// dropEmptyFields removes "" members from a JSON object body.
func dropEmptyFields(body string) (string, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return body, err
	}
	for k, v := range fields {
		if str, ok := v.(string); ok && str == "" {
			delete(fields, k)
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return body, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (a *Assistant) suggestions(n int) []string {
	if n <= 0 {
		n = DefaultSuggestionCount
	}
	if out := a.registry.Examples(n); len(out) > 0 {
		return out
	}
	if n > len(genericSuggestions) {
		n = len(genericSuggestions)
	}
	return append([]string(nil), genericSuggestions[:n]...)
}

func renderOptions(overlay map[string]string) render.Options {
	opts := render.DefaultOptions()
	opts.Overlay = overlay
	return opts
}

// entityOverlay exposes entity values to templates under their slot names.
func entityOverlay(cmd domain.VoiceCommand) map[string]string {
	out := make(map[string]string, len(cmd.Entities)+2)
	for key, e := range cmd.Entities {
		out[key] = e.Value
	}
	out["intent"] = cmd.Intent
	return out
}

func missingLabel(cmd domain.VoiceCommand, def *domain.CommandDefinition) string {
	if def == nil {
		return "details"
	}
	var names []string
	for _, req := range def.RequiredEntities {
		if cmd.HasEntity(req) {
			continue
		}
		label, ok := entityLabels[req]
		if !ok {
			label = req
		}
		names = append(names, label)
	}
	if len(names) == 0 {
		return "details"
	}
	sort.Strings(names)
	return strings.Join(names, " and ")
}

// succeeded is false only when the command could not be understood or
// completed; a deliberate handoff to a business system is a success.
func succeeded(cls domain.CommandClassification) bool {
	if cls.CanHandle {
		return true
	}
	switch cls.FallbackReason {
	case domain.ReasonLowConfidence, domain.ReasonUnknownCommand,
		domain.ReasonEntityExtractionFailed, domain.ReasonInternalError:
		return false
	}
	return true
}

func errorResponse(err error, suggestions []string) domain.VoiceResponse {
	return domain.VoiceResponse{
		Text:           internalErrorText,
		Success:        false,
		ShouldFallback: true,
		FallbackReason: domain.ReasonInternalError,
		Suggestions:    suggestions,
		Metadata: map[string]interface{}{
			"error": err.Error(),
		},
	}
}
