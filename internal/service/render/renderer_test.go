package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

func fixedRenderer(ctx domain.BusinessContext) *Renderer {
	r := NewRenderer(ctx)
	r.now = func() time.Time { return time.Date(2025, time.March, 4, 15, 7, 0, 0, time.UTC) }
	return r
}

func TestRender_BusinessName(t *testing.T) {
	res := Render("Hello {{businessName}}", domain.BusinessContext{Name: "Acme"}, DefaultOptions())
	assert.Equal(t, "Hello Acme", res.Text)
	assert.Equal(t, []string{"businessName"}, res.Metrics.UsedVariables)
	assert.Equal(t, 1, res.Metrics.Replacements)
	assert.Empty(t, res.Metrics.Unresolved)
}

func TestRender_UnknownPreservedByDefault(t *testing.T) {
	res := Render("{{unknown}}", domain.BusinessContext{}, DefaultOptions())
	assert.Equal(t, "{{unknown}}", res.Text)
	assert.Equal(t, []string{"unknown"}, res.Metrics.Unresolved)
	assert.Zero(t, res.Metrics.Replacements)
}

func TestRender_UnknownDropped(t *testing.T) {
	opts := DefaultOptions()
	opts.PreserveUnknown = false
	res := Render("a{{ missing }}b", domain.BusinessContext{}, opts)
	assert.Equal(t, "ab", res.Text)
}

func TestRender_Variables(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{
		Name:         "Acme Field",
		Domain:       "logistics",
		Capabilities: []string{"scheduling", "dispatch"},
		SupportEmail: "help@acme.io",
	})

	tests := []struct {
		template string
		want     string
	}{
		{"{{businessNameUpper}}/{{businessNameLower}}", "ACME FIELD/acme field"},
		{"{{capabilities}} ({{capabilityCount}})", "scheduling, dispatch (2)"},
		{"{{ businessDomain }}", "logistics"},
		{"{{supportEmail}}", "help@acme.io"},
		{"{{currentYear}} {{currentDate}} {{currentTime}}", "2025 March 4, 2025 3:07 PM"},
		{"{{website}}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.template, DefaultOptions()).Text)
		})
	}
}

func TestRender_CustomVariablesWin(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{
		Name:            "Acme",
		CustomVariables: map[string]string{"businessName": "ACME Corp", "currentYear": "FY25"},
	})
	assert.Equal(t, "ACME Corp FY25", r.Render("{{businessName}} {{currentYear}}", DefaultOptions()).Text)
}

func TestRender_CaseInsensitive(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{Name: "Acme"})

	assert.Equal(t, "{{BUSINESSNAME}}", r.Render("{{BUSINESSNAME}}", DefaultOptions()).Text)

	opts := DefaultOptions()
	opts.CaseSensitive = false
	assert.Equal(t, "Acme", r.Render("{{BUSINESSNAME}}", opts).Text)
}

func TestRender_NestedOneLevel(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{
		Name: "Acme",
		CustomVariables: map[string]string{
			"greeting": "Welcome to {{businessName}}",
			"loop":     "{{loop}}",
			"outer":    "[{{greeting}}]",
		},
	})

	res := r.Render("{{greeting}}", DefaultOptions())
	assert.Equal(t, "Welcome to Acme", res.Text)
	assert.Equal(t, []string{"businessName", "greeting"}, res.Metrics.UsedVariables)
	assert.Equal(t, 2, res.Metrics.Replacements)

	assert.Equal(t, "{{loop}}", r.Render("{{loop}}", DefaultOptions()).Text)
	assert.Equal(t, "[Welcome to {{businessName}}]", r.Render("{{outer}}", DefaultOptions()).Text)

	opts := DefaultOptions()
	opts.AllowNested = false
	assert.Equal(t, "Welcome to {{businessName}}", r.Render("{{greeting}}", opts).Text)
}

func TestRender_Overlay(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{Name: "Acme"})
	opts := DefaultOptions()
	opts.Overlay = map[string]string{"taskIdentifier": "T-9", "businessName": "shadowed"}

	assert.Equal(t, "Task T-9 closed at shadowed", r.Render("Task {{taskIdentifier}} closed at {{businessName}}", opts).Text)
}

func TestRender_EscapeAppliesOnceAfterNesting(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{
		Name:            "Acme",
		CustomVariables: map[string]string{"greeting": "Hi {{businessName}}"},
	})
	opts := DefaultOptions()
	opts.Escape = func(s string) string { return "<" + s + ">" }

	assert.Equal(t, "<Hi Acme>!", r.Render("{{greeting}}!", opts).Text)
	assert.Equal(t, "{{nope}}", r.Render("{{nope}}", opts).Text, "unresolved tokens are not escaped")
}

func TestRenderer_SetContextRebuildsCache(t *testing.T) {
	r := fixedRenderer(domain.BusinessContext{Name: "Acme"})
	require.Equal(t, "Acme", r.Render("{{businessName}}", DefaultOptions()).Text)

	ctx := r.Context()
	ctx.Name = "Globex"
	r.SetContext(ctx)
	assert.Equal(t, "Globex", r.Render("{{businessName}}", DefaultOptions()).Text)
	assert.Equal(t, "GLOBEX", r.Variables()["businessNameUpper"])
}

func TestRenderer_ContextIsCopied(t *testing.T) {
	caps := []string{"payroll"}
	r := fixedRenderer(domain.BusinessContext{Name: "Acme", Capabilities: caps})
	caps[0] = "mutated"
	assert.Equal(t, "payroll", r.Render("{{capabilities}}", DefaultOptions()).Text)
}
