package render

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`)

// Options controls a single render call.
type Options struct {
	PreserveUnknown bool
	CaseSensitive   bool
	AllowNested     bool
	// Overlay is consulted before the business variables, e.g. for entity values.
	Overlay map[string]string
	// Escape, when set, is applied to every substituted value after nesting.
	Escape func(string) string
}

// DefaultOptions preserves unknown tokens, matches case-sensitively and allows one nesting level.
func DefaultOptions() Options {
	return Options{
		PreserveUnknown: true,
		CaseSensitive:   true,
		AllowNested:     true,
	}
}

// Metrics describes what a render call did.
type Metrics struct {
	UsedVariables []string `json:"used_variables"`
	Replacements  int      `json:"replacements"`
	Unresolved    []string `json:"unresolved,omitempty"`
}

type Result struct {
	Text    string  `json:"text"`
	Metrics Metrics `json:"metrics"`
}

// Renderer resolves {{variable}} tokens against a business profile. The flattened
// variable map is rebuilt only when the profile changes.
type Renderer struct {
	mu    sync.Mutex
	ctx   domain.BusinessContext
	vars  map[string]string
	lower map[string]string
	valid bool
	now   func() time.Time
}

// NewRenderer returns a renderer for ctx.
func NewRenderer(ctx domain.BusinessContext) *Renderer {
	return &Renderer{ctx: ctx.Clone(), now: time.Now}
}

// SetContext replaces the profile and invalidates the variable cache if it changed.
func (r *Renderer) SetContext(ctx domain.BusinessContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reflect.DeepEqual(r.ctx, ctx) {
		return
	}
	r.ctx = ctx.Clone()
	r.valid = false
}

// Context returns a copy of the current profile.
func (r *Renderer) Context() domain.BusinessContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx.Clone()
}

// Variables returns a copy of the flattened variable map.
func (r *Renderer) Variables() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh()
	out := make(map[string]string, len(r.vars))
	for k, v := range r.vars {
		out[k] = v
	}
	return out
}

// refresh rebuilds the cache if needed and always updates the clock-derived fields.
// Callers hold r.mu.
func (r *Renderer) refresh() {
	if !r.valid {
		r.vars = flatten(r.ctx)
		r.valid = true
	}
	now := r.now()
	for k, v := range timeVars(now) {
		if _, custom := r.ctx.CustomVariables[k]; !custom {
			r.vars[k] = v
		}
	}
	r.lower = make(map[string]string, len(r.vars))
	for k, v := range r.vars {
		r.lower[strings.ToLower(k)] = v
	}
}

func timeVars(now time.Time) map[string]string {
	return map[string]string{
		"currentDate": now.Format("January 2, 2006"),
		"currentTime": now.Format("3:04 PM"),
		"currentYear": strconv.Itoa(now.Year()),
	}
}

func flatten(ctx domain.BusinessContext) map[string]string {
	vars := map[string]string{
		"businessName":      ctx.Name,
		"businessDomain":    ctx.Domain,
		"capabilities":      strings.Join(ctx.Capabilities, ", "),
		"capabilityCount":   strconv.Itoa(len(ctx.Capabilities)),
		"website":           ctx.Website,
		"supportEmail":      ctx.SupportEmail,
		"brandColor":        ctx.BrandColor,
		"businessNameUpper": strings.ToUpper(ctx.Name),
		"businessNameLower": strings.ToLower(ctx.Name),
	}
	for k, v := range ctx.CustomVariables {
		vars[k] = v
	}
	return vars
}

// Render substitutes tokens in template.
func (r *Renderer) Render(template string, opts Options) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh()

	st := &state{
		used:       map[string]bool{},
		unresolved: map[string]bool{},
	}
	text := st.substitute(template, opts, r.vars, r.lower)
	return Result{Text: text, Metrics: st.metrics()}
}

type state struct {
	used         map[string]bool
	unresolved   map[string]bool
	replacements int
}

func (s *state) lookup(name string, opts Options, vars, lower map[string]string) (string, bool) {
	if v, ok := opts.Overlay[name]; ok {
		return v, true
	}
	if v, ok := vars[name]; ok {
		return v, true
	}
	if opts.CaseSensitive {
		return "", false
	}
	key := strings.ToLower(name)
	for k, v := range opts.Overlay {
		if strings.ToLower(k) == key {
			return v, true
		}
	}
	v, ok := lower[key]
	return v, ok
}

func (s *state) substitute(template string, opts Options, vars, lower map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := tokenPattern.FindStringSubmatch(token)[1]
		value, ok := s.lookup(name, opts, vars, lower)
		if !ok {
			s.unresolved[name] = true
			if opts.PreserveUnknown {
				return token
			}
			return ""
		}
		s.used[name] = true
		s.replacements++
		if opts.AllowNested && tokenPattern.MatchString(value) {
			flat := opts
			flat.AllowNested = false
			flat.Escape = nil
			value = s.substitute(value, flat, vars, lower)
		}
		if opts.Escape != nil {
			value = opts.Escape(value)
		}
		return value
	})
}

func (s *state) metrics() Metrics {
	m := Metrics{
		UsedVariables: sortedKeys(s.used),
		Replacements:  s.replacements,
	}
	if len(s.unresolved) > 0 {
		m.Unresolved = sortedKeys(s.unresolved)
	}
	return m
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render is a one-shot helper for callers without a long-lived Renderer.
func Render(template string, ctx domain.BusinessContext, opts Options) Result {
	return NewRenderer(ctx).Render(template, opts)
}
