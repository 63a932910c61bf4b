package voice

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/observability/telemetry"
)

// runActions executes each action on its own. A failed action is logged and
// recorded; it never stops the others.
func (a *Assistant) runActions(ctx context.Context, actions []domain.Action) []domain.ActionResult {
	results := make([]domain.ActionResult, 0, len(actions))
	for _, action := range actions {
		results = append(results, a.runAction(ctx, action))
	}
	return results
}

func (a *Assistant) runAction(ctx context.Context, action domain.Action) (res domain.ActionResult) {
	ctx, span := telemetry.StartSpan(ctx, "voice.action")
	defer span.End()
	span.SetAttributes(
		attribute.String("action.kind", string(action.Kind)),
		attribute.String("action.endpoint", action.Endpoint),
	)

	defer func() {
		if r := recover(); r != nil {
			res = domain.ActionResult{ActionID: action.ID, Kind: string(action.Kind), Error: fmt.Sprintf("panic: %v", r)}
		}
		outcome := "success"
		if !res.Success {
			outcome = "failure"
			a.log.Error("Action failed",
				zap.String("action_id", action.ID),
				zap.String("kind", string(action.Kind)),
				zap.String("endpoint", action.Endpoint),
				zap.String("error", res.Error),
			)
		}
		telemetry.ActionsTotal.WithLabelValues(string(action.Kind), outcome).Inc()
	}()

	// Navigation is carried out by the client that receives the response.
	if action.Kind == domain.ActionNavigate {
		return domain.ActionResult{ActionID: action.ID, Kind: string(action.Kind), Success: true}
	}

	if a.executor == nil {
		return domain.ActionResult{ActionID: action.ID, Kind: string(action.Kind), Error: "no action executor configured"}
	}

	res, err := a.executor.Execute(ctx, action)
	if err != nil {
		res.ActionID = action.ID
		res.Kind = string(action.Kind)
		res.Success = false
		res.Error = err.Error()
	}
	return res
}
