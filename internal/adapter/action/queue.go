package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/ports"
)

// SubjectActions carries deferred api_call actions.
const SubjectActions = "voice.actions"

// Envelope is the message published for each deferred action.
type Envelope struct {
	Action     domain.Action `json:"action"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// QueueExecutor defers api_call actions to a worker by publishing them. An
// action counts as successful once it is accepted by the broker.
type QueueExecutor struct {
	queue   ports.MessageQueue
	subject string
	log     *zap.Logger
}

func NewQueueExecutor(queue ports.MessageQueue, subject string, log *zap.Logger) *QueueExecutor {
	if subject == "" {
		subject = SubjectActions
	}
	return &QueueExecutor{queue: queue, subject: subject, log: log}
}

func (e *QueueExecutor) Execute(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	result := domain.ActionResult{ActionID: action.ID, Kind: string(action.Kind)}
	if action.Kind != domain.ActionAPICall {
		return result, fmt.Errorf("queue executor: unsupported action kind %q", action.Kind)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	data, err := json.Marshal(Envelope{Action: action, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return result, fmt.Errorf("queue executor: encode: %w", err)
	}
	if err := e.queue.Publish(e.subject, data); err != nil {
		return result, fmt.Errorf("queue executor: %w", err)
	}

	result.Success = true
	return result, nil
}

// Worker consumes deferred actions and runs them through an executor,
// normally an HTTPExecutor.
type Worker struct {
	queue    ports.MessageQueue
	subject  string
	executor ports.ActionExecutor
	timeout  time.Duration
	log      *zap.Logger
}

func NewWorker(queue ports.MessageQueue, subject string, executor ports.ActionExecutor, timeout time.Duration, log *zap.Logger) *Worker {
	if subject == "" {
		subject = SubjectActions
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Worker{queue: queue, subject: subject, executor: executor, timeout: timeout, log: log}
}

func (w *Worker) Start() error {
	if err := w.queue.Subscribe(w.subject, w.handle); err != nil {
		return fmt.Errorf("action worker: %w", err)
	}
	w.log.Info("Action worker started", zap.String("subject", w.subject))
	return nil
}

func (w *Worker) handle(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("action worker: decode: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	res, err := w.executor.Execute(ctx, env.Action)
	if err != nil {
		return fmt.Errorf("action worker: %s: %w", env.Action.ID, err)
	}
	if !res.Success {
		return fmt.Errorf("action worker: %s: %s", env.Action.ID, res.Error)
	}
	return nil
}
