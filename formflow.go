package formflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/hificopy/formflow/internal/logging"
	"github.com/hificopy/formflow/internal/runtime"
	"github.com/hificopy/formflow/internal/validator"
	"github.com/hificopy/formflow/pkg/answers"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/workflow"
)

// Version is the module version, overridden at build time with
// -ldflags "-X github.com/hificopy/formflow.Version=...".
var Version = "dev"

// Engine is the high-level entry point for the formflow library.
// Builder, runtime and server-side qualifier all go through the same Engine
// so they can never disagree on a rule.
type Engine struct {
	runtime           *runtime.Engine
	policy            answers.Policy
	hooks             domain.LifecycleHooks
	logger            *slog.Logger
	disqualifyMessage string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDisqualifyMessage overrides the generic disqualification copy used when
// neither the rule nor the question carries one.
func WithDisqualifyMessage(msg string) Option {
	return func(e *Engine) {
		e.disqualifyMessage = msg
	}
}

// WithAnswerPolicy sets the answer validation policy (free-mail deny-list, date layouts).
func WithAnswerPolicy(policy answers.Policy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{policy: answers.DefaultPolicy()}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithDisqualifyMessage(eng.disqualifyMessage),
	)
	return eng
}

// Runtime returns the underlying navigation and scoring engine, for adapters
// that take one.
func (e *Engine) Runtime() *runtime.Engine {
	return e.runtime
}

// Validate checks the flow graph. The report is advisory: callers decide
// whether warnings block a save.
func (e *Engine) Validate(ctx context.Context, flow *domain.Flow) *domain.ValidationReport {
	report := validator.Validate(flow.Questions, flow.Endings)
	if e.hooks.OnValidation != nil {
		e.hooks.OnValidation(ctx, &domain.ValidationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventValidation},
			FormID:    flow.ID,
			Errors:    len(report.Errors),
			Warnings:  len(report.Warnings),
		})
	}
	return report
}

// Resolve determines where a respondent goes after answering the question at current.
func (e *Engine) Resolve(ctx context.Context, flow *domain.Flow, current int, values domain.Answers) domain.Decision {
	return e.runtime.ResolveFlow(ctx, current, flow, values)
}

// Score aggregates the lead score of the answers.
func (e *Engine) Score(ctx context.Context, flow *domain.Flow, values domain.Answers) domain.Score {
	return e.runtime.Score(ctx, flow.Questions, values)
}

// Qualify re-evaluates a respondent's answers the way the server does.
func (e *Engine) Qualify(ctx context.Context, flow *domain.Flow, values domain.Answers) domain.QualificationResult {
	return e.runtime.Qualify(ctx, flow, values)
}

// Derive returns the node/edge view of the flow for the visual editor.
func (e *Engine) Derive(flow *domain.Flow, opts ...workflow.DeriveOption) domain.Graph {
	return workflow.Derive(flow, opts...)
}

// ValidateAnswer checks a single answer against the question's declared rules.
// It returns a *domain.ValidationError.
func (e *Engine) ValidateAnswer(q *domain.Question, value any) error {
	return answers.Validate(q, value, e.policy)
}
