package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
)

// DefaultDisqualifyMessage is used when neither the rule nor the question carries copy.
const DefaultDisqualifyMessage = "Thanks for your interest. Unfortunately we are not a fit right now."

// Engine holds the configuration shared by navigation, scoring and qualification.
// All methods are pure over their inputs and safe for concurrent use.
type Engine struct {
	logger            *slog.Logger
	hooks             domain.LifecycleHooks
	disqualifyMessage string
	now               func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for fail-closed evaluation diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithDisqualifyMessage overrides the generic disqualification fallback copy.
func WithDisqualifyMessage(msg string) EngineOption {
	return func(e *Engine) {
		if msg != "" {
			e.disqualifyMessage = msg
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		disqualifyMessage: DefaultDisqualifyMessage,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Resolve runs the navigation resolver with the default configuration.
func Resolve(current int, questions []domain.Question, answers domain.Answers) domain.Decision {
	return defaultEngine.Resolve(context.Background(), current, questions, answers)
}

// Score runs the lead scoring aggregator with the default configuration.
func Score(questions []domain.Question, answers domain.Answers) domain.Score {
	return defaultEngine.Score(context.Background(), questions, answers)
}

func (e *Engine) emitDecision(ctx context.Context, questionID string, d domain.Decision) {
	if e.hooks.OnDecision == nil {
		return
	}
	e.hooks.OnDecision(ctx, &domain.DecisionEvent{
		EventBase:  domain.EventBase{Timestamp: e.now(), Type: domain.EventDecision},
		QuestionID: questionID,
		Decision:   d,
	})
}

func (e *Engine) emitQualify(ctx context.Context, flow *domain.Flow, result domain.QualificationResult) {
	if e.hooks.OnQualify == nil {
		return
	}
	ev := &domain.QualifyEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventQualify},
		Result:    result,
	}
	if flow != nil {
		ev.FormID = flow.ID
	}
	e.hooks.OnQualify(ctx, ev)
}

func (e *Engine) emitScore(ctx context.Context, total int) {
	if e.hooks.OnScore == nil {
		return
	}
	e.hooks.OnScore(ctx, &domain.ScoreEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventScore},
		Total:     total,
	})
}
