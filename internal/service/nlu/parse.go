package nlu

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

type wireInterpretation struct {
	Intent     *string                    `json:"intent"`
	Entities   map[string]json.RawMessage `json:"entities"`
	Confidence *float64                   `json:"confidence"`
}

// extractJSON returns the first balanced JSON object in s, tolerating code
// fences and prose around it.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseInterpretation validates raw provider content. The payload must carry a
// non-empty string intent and a numeric confidence in [0,1]; entities are optional.
func parseInterpretation(raw string) (Interpretation, error) {
	obj, ok := extractJSON(raw)
	if !ok {
		return Interpretation{}, fmt.Errorf("%w: no JSON object", ErrMalformedResponse)
	}

	var w wireInterpretation
	if err := json.Unmarshal([]byte(obj), &w); err != nil {
		return Interpretation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if w.Intent == nil || strings.TrimSpace(*w.Intent) == "" {
		return Interpretation{}, fmt.Errorf("%w: missing intent", ErrMalformedResponse)
	}
	if w.Confidence == nil || math.IsNaN(*w.Confidence) || *w.Confidence < 0 || *w.Confidence > 1 {
		return Interpretation{}, fmt.Errorf("%w: confidence missing or outside [0,1]", ErrMalformedResponse)
	}

	out := Interpretation{
		Intent:     strings.TrimSpace(*w.Intent),
		Confidence: *w.Confidence,
		Entities:   make(map[string]domain.Entity, len(w.Entities)),
	}
	for key, rawValue := range w.Entities {
		value, ok := entityValue(rawValue)
		if !ok {
			continue
		}
		out.Entities[key] = domain.Entity{
			Type:       domain.EntityType(key),
			Value:      value,
			Confidence: out.Confidence,
			SourceText: value,
		}
	}
	return out, nil
}

// entityValue accepts "x", 5, true or {"value": ...}.
func entityValue(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprint(b), true
	}
	var obj struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && len(obj.Value) > 0 {
		return entityValue(obj.Value)
	}
	return "", false
}
