package voice

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/observability/telemetry"
	"github.com/seu-repo/workforce-voice/internal/ports"
	"github.com/seu-repo/workforce-voice/internal/service/classifier"
	"github.com/seu-repo/workforce-voice/internal/service/entity"
	"github.com/seu-repo/workforce-voice/internal/service/nlu"
	"github.com/seu-repo/workforce-voice/internal/service/registry"
	"github.com/seu-repo/workforce-voice/internal/service/render"
)

// Dependencies are shared by every assistant built from them.
type Dependencies struct {
	Registry  *registry.Registry
	Providers []nlu.Provider
	Executor  ports.ActionExecutor
	Keywords  classifier.Keywords
	Log       *zap.Logger
}

// pipeline is swapped as a whole so a running Process never sees a half-updated
// configuration.
type pipeline struct {
	cfg        Config
	business   domain.BusinessContext
	extractor  *entity.Extractor
	classifier *classifier.Classifier
}

// Result is everything one Process call produced.
type Result struct {
	Command        domain.VoiceCommand           `json:"command"`
	Classification domain.CommandClassification  `json:"classification"`
	Response       domain.VoiceResponse          `json:"response"`
	Extraction     domain.EntityExtractionResult `json:"extraction"`
}

// Assistant runs transcripts through extraction, interpretation,
// classification and response building. Its exported methods never return
// errors; failures surface as VoiceResponse data.
type Assistant struct {
	registry     *registry.Registry
	orchestrator *nlu.Orchestrator
	renderer     *render.Renderer
	executor     ports.ActionExecutor
	keywords     classifier.Keywords
	log          *zap.Logger

	mu    sync.Mutex // serialises mutators
	state atomic.Pointer[pipeline]
}

// NewAssistant builds an assistant with its own provider status cache.
func NewAssistant(cfg Config, business domain.BusinessContext, deps Dependencies) *Assistant {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = registry.Default()
	}
	keywords := deps.Keywords
	if keywords == nil {
		keywords = classifier.DefaultKeywords()
	}

	providers := deps.Providers
	if len(providers) == 0 {
		providers = []nlu.Provider{nlu.NewKeywordProvider(reg)}
	}

	a := &Assistant{
		registry:     reg,
		orchestrator: nlu.NewOrchestrator(providers, cfg.orchestratorOptions(), log),
		renderer:     render.NewRenderer(business),
		executor:     deps.Executor,
		keywords:     keywords,
		log:          log,
	}
	a.state.Store(a.build(cfg, business))
	return a
}

func (a *Assistant) build(cfg Config, business domain.BusinessContext) *pipeline {
	return &pipeline{
		cfg:        cfg,
		business:   business.Clone(),
		extractor:  entity.NewExtractor(cfg.extractorOptions(), a.log),
		classifier: classifier.New(cfg.classifierOptions(), a.keywords, a.log).WithBusinessContext(business),
	}
}

func (a *Assistant) Config() Config {
	return a.state.Load().cfg
}

func (a *Assistant) BusinessContext() domain.BusinessContext {
	return a.state.Load().business.Clone()
}

func (a *Assistant) Registry() *registry.Registry {
	return a.registry
}

// UpdateConfig merges p into the current configuration and rebuilds the
// components that depend on it.
func (a *Assistant) UpdateConfig(p ConfigPatch) Config {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.state.Load()
	cfg := cur.cfg.Apply(p)
	a.orchestrator.SetOptions(cfg.orchestratorOptions())
	a.state.Store(a.build(cfg, cur.business))

	a.log.Debug("Voice config updated",
		zap.Float64("confidence_threshold", cfg.ConfidenceThreshold),
		zap.Duration("timeout", cfg.Timeout),
	)
	return cfg
}

// UpdateBusinessContext merges p into the business profile.
func (a *Assistant) UpdateBusinessContext(p domain.BusinessContextPatch) domain.BusinessContext {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.state.Load()
	business := cur.business.Apply(p)
	a.renderer.SetContext(business)
	a.state.Store(a.build(cur.cfg, business))
	return business.Clone()
}

// ProviderStatus returns the orchestrator's status cache in chain order.
func (a *Assistant) ProviderStatus() []nlu.ProviderState {
	return a.orchestrator.States()
}

func (a *Assistant) ResetProviderStatus() {
	a.orchestrator.ResetProviderStatus()
}

// ExtractEntities runs only the entity extractor.
func (a *Assistant) ExtractEntities(text string) domain.EntityExtractionResult {
	return a.state.Load().extractor.Extract(text)
}

// ParseCommand turns text into a command. Extraction runs first and its
// entities are handed to every provider.
func (a *Assistant) ParseCommand(ctx context.Context, text string) domain.VoiceCommand {
	cmd, _ := a.parse(ctx, a.state.Load(), text)
	return cmd
}

func (a *Assistant) parse(ctx context.Context, p *pipeline, text string) (domain.VoiceCommand, domain.EntityExtractionResult) {
	extraction := p.extractor.Extract(text)
	telemetry.VoiceEntitiesExtracted.Observe(float64(len(extraction.Entities)))

	cmd := a.orchestrator.Parse(ctx, nlu.Request{
		Text:     text,
		Business: p.business,
		Intents:  a.registry.Intents(),
		Entities: extraction.Entities,
	})
	return cmd, extraction
}

// ClassifyCommand decides whether cmd can be handled locally. A nil def takes
// the unknown-command path.
func (a *Assistant) ClassifyCommand(cmd domain.VoiceCommand, def *domain.CommandDefinition) domain.CommandClassification {
	return a.state.Load().classifier.Classify(cmd, def)
}

// Definition resolves the registry entry for cmd: by intent first, then by
// trigger phrase in the raw text.
func (a *Assistant) Definition(cmd domain.VoiceCommand) *domain.CommandDefinition {
	if cmd.Intent != domain.IntentUnknown {
		if def, ok := a.registry.FindByIntent(cmd.Intent); ok {
			return &def
		}
		return nil
	}
	if def, ok := a.registry.Match(cmd.RawText); ok {
		return &def
	}
	return nil
}

// BuildResponse composes the response for an already classified command.
func (a *Assistant) BuildResponse(cmd domain.VoiceCommand, cls domain.CommandClassification) domain.VoiceResponse {
	p := a.state.Load()
	return a.respond(p, cmd, cls, a.Definition(cmd))
}

// Process runs the whole pipeline. It recovers from panics and always returns
// a well-formed result.
func (a *Assistant) Process(ctx context.Context, text string) (res Result) {
	ctx, span := telemetry.StartSpan(ctx, "voice.Process")
	defer span.End()

	start := time.Now()
	p := a.state.Load()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Voice pipeline panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = a.internalError(text, fmt.Errorf("panic: %v", r))
			telemetry.VoiceCommandsTotal.WithLabelValues(res.Command.Intent, "error").Inc()
		}
		telemetry.VoicePipelineLatency.Observe(time.Since(start).Seconds())
	}()

	cmd, extraction := a.parse(ctx, p, text)
	def := a.Definition(cmd)
	cls := p.classifier.Classify(cmd, def)
	cmd.Complexity = cls.Complexity

	resp := a.respond(p, cmd, cls, def)

	if p.cfg.ExecuteActions && cls.CanHandle && len(resp.Actions) > 0 {
		results := a.runActions(ctx, resp.Actions)
		resp.Metadata["actionResults"] = results
	}

	status := "handled"
	if cls.ShouldFallback {
		status = "fallback"
		telemetry.VoiceFallbacksTotal.WithLabelValues(string(cls.FallbackReason)).Inc()
	}
	telemetry.VoiceCommandsTotal.WithLabelValues(cmd.Intent, status).Inc()
	span.SetAttributes(
		attribute.String("voice.intent", cmd.Intent),
		attribute.String("voice.status", status),
		attribute.Float64("voice.confidence", cmd.Confidence),
	)

	return Result{
		Command:        cmd,
		Classification: cls,
		Response:       resp,
		Extraction:     extraction,
	}
}

func (a *Assistant) internalError(text string, err error) Result {
	cmd := domain.VoiceCommand{
		ID:        uuid.NewString(),
		Intent:    domain.IntentUnknown,
		Entities:  map[string]domain.Entity{},
		RawText:   text,
		Timestamp: time.Now().UTC(),
	}
	cls := domain.CommandClassification{
		Complexity:     domain.ComplexityModerate,
		ShouldFallback: true,
		FallbackReason: domain.ReasonInternalError,
	}
	return Result{
		Command:        cmd,
		Classification: cls,
		Response:       errorResponse(err, a.suggestions(a.state.Load().cfg.SuggestionCount)),
		Extraction:     domain.EntityExtractionResult{Entities: map[string]domain.Entity{}},
	}
}
