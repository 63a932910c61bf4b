package classifier

import (
	"strings"
)

// Keywords maps a lowercase word or phrase to its business weight in [0,1].
type Keywords map[string]float64

// DefaultKeywords is the workforce-management dictionary.
func DefaultKeywords() Keywords {
	return Keywords{
		"shift":      0.8,
		"shifts":     0.8,
		"schedule":   0.8,
		"roster":     0.8,
		"timesheet":  0.9,
		"payroll":    0.9,
		"overtime":   0.85,
		"attendance": 0.85,
		"hours":      0.6,
		"task":       0.7,
		"tasks":      0.7,
		"project":    0.7,
		"deadline":   0.75,
		"team":       0.5,
		"employee":   0.7,
		"employees":  0.7,
		"staff":      0.6,
		"manager":    0.6,
		"approval":   0.8,
		"approve":    0.8,
		"leave":      0.6,
		"time off":   0.8,
		"vacation":   0.7,
		"report":     0.7,
		"inventory":  0.8,
		"order":      0.6,
		"orders":     0.6,
		"customer":   0.7,
		"client":     0.7,
		"invoice":    0.85,
		"budget":     0.8,
		"revenue":    0.9,
		"sales":      0.8,
		"status":     0.5,
		"assign":     0.7,
		"assigned":   0.7,
		"priority":   0.5,
		"coverage":   0.7,
		"meeting":    0.5,
		"clock":      0.6,
		"break":      0.4,
	}
}

var domainDictionaries = map[string]Keywords{
	"logistics": {
		"shipment": 0.9, "delivery": 0.8, "deliveries": 0.8, "route": 0.7,
		"truck": 0.7, "warehouse": 0.8, "dispatch": 0.8, "pallet": 0.7,
	},
	"healthcare": {
		"patient": 0.9, "patients": 0.9, "appointment": 0.8, "ward": 0.7,
		"clinic": 0.7, "medication": 0.9, "on call": 0.8,
	},
	"retail": {
		"store": 0.6, "stock": 0.8, "register": 0.6, "sku": 0.9,
		"shelf": 0.6, "markdown": 0.7, "returns": 0.7,
	},
	"construction": {
		"site": 0.7, "permit": 0.8, "crew": 0.7, "equipment": 0.7,
		"inspection": 0.8, "materials": 0.7,
	},
	"hospitality": {
		"reservation": 0.8, "guest": 0.8, "guests": 0.8, "room": 0.6,
		"booking": 0.8, "housekeeping": 0.8, "check in": 0.7,
	},
}

// DomainKeywords returns the built-in dictionary for an industry, or nil.
func DomainKeywords(name string) Keywords {
	d, ok := domainDictionaries[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil
	}
	return d.Clone()
}

const capabilityWeight = 0.6

// CapabilityKeywords turns capability labels ("shift scheduling") into keywords.
func CapabilityKeywords(capabilities []string) Keywords {
	out := Keywords{}
	for _, c := range capabilities {
		for _, w := range tokenize(c) {
			if len(w) < 4 || fillers[w] {
				continue
			}
			out[w] = capabilityWeight
		}
	}
	return out
}

// Clone returns an independent copy.
func (k Keywords) Clone() Keywords {
	out := make(Keywords, len(k))
	for w, v := range k {
		out[w] = v
	}
	return out
}

// Merge returns a copy of k with extra applied on top. Weights are clamped into [0,1].
func (k Keywords) Merge(extra Keywords) Keywords {
	out := k.Clone()
	for w, v := range extra {
		out[strings.ToLower(strings.TrimSpace(w))] = clamp(v)
	}
	return out
}

// mergeMissing adds only words k does not already weigh.
func (k Keywords) mergeMissing(extra Keywords) Keywords {
	out := k.Clone()
	for w, v := range extra {
		if _, ok := out[w]; !ok {
			out[w] = clamp(v)
		}
	}
	return out
}

var fillers = map[string]bool{
	"with": true, "from": true, "into": true, "your": true, "that": true, "this": true,
	"management": true, "tracking": true, "support": true,
}

func tokenize(s string) []string {
	return strings.Fields(nonWord.ReplaceAllString(strings.ToLower(s), " "))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
