package nlu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

// BuildPrompt renders the instruction sent to AI providers.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You interpret spoken commands for a workforce management assistant.\n\n")

	b.WriteString("Business context:\n")
	name := req.Business.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "- name: %s\n", name)
	if req.Business.Domain != "" {
		fmt.Fprintf(&b, "- industry: %s\n", req.Business.Domain)
	}
	if len(req.Business.Capabilities) > 0 {
		fmt.Fprintf(&b, "- capabilities: %s\n", strings.Join(req.Business.Capabilities, ", "))
	}

	b.WriteString("\nKnown intents: ")
	if len(req.Intents) == 0 {
		b.WriteString(domain.IntentUnknown)
	} else {
		b.WriteString(strings.Join(req.Intents, ", "))
	}
	b.WriteString("\n")

	if len(req.Entities) > 0 {
		b.WriteString("\nEntities already detected:\n")
		keys := make([]string, 0, len(req.Entities))
		for k := range req.Entities {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, req.Entities[k].Value)
		}
	}

	fmt.Fprintf(&b, "\nTranscript: %q\n\n", req.Text)
	b.WriteString(`Respond with only a JSON object of the form {"intent": string, "entities": object, "confidence": number between 0 and 1}. `)
	b.WriteString(`Use "unknown" when no known intent fits.`)
	return b.String()
}
