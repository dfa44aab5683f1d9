package observability

import (
	"context"
	"log/slog"

	"github.com/hificopy/formflow/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			logger.DebugContext(ctx, "decision",
				"question_id", e.QuestionID,
				"action", e.Decision.Action,
				"next_index", e.Decision.NextIndex,
				"rule_index", e.Decision.RuleIndex,
			)
		},
		OnScore: func(ctx context.Context, e *domain.ScoreEvent) {
			logger.DebugContext(ctx, "score", "total", e.Total)
		},
		OnQualify: func(ctx context.Context, e *domain.QualifyEvent) {
			logger.DebugContext(ctx, "qualify",
				"form_id", e.FormID,
				"qualification", e.Result.Qualification,
				"score", e.Result.Score.Total,
				"question_id", e.Result.QuestionID,
			)
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.InfoContext(ctx, "validation",
				"form_id", e.FormID,
				"errors", e.Errors,
				"warnings", e.Warnings,
			)
		},
		OnSaveAttempt: func(ctx context.Context, e *domain.SaveAttemptEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "save_attempt",
					"session_id", e.SessionID,
					"attempt", e.Attempt,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "save_attempt",
				"session_id", e.SessionID,
				"attempt", e.Attempt,
				"duration", e.Duration,
			)
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			logger.InfoContext(ctx, "status_change",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
				"reason", e.Reason,
			)
		},
	}
}

// Chain merges hooks so every non-nil callback runs in order.
func Chain(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnDecision = chain(out.OnDecision, h.OnDecision)
		out.OnScore = chain(out.OnScore, h.OnScore)
		out.OnQualify = chain(out.OnQualify, h.OnQualify)
		out.OnValidation = chain(out.OnValidation, h.OnValidation)
		out.OnSaveAttempt = chain(out.OnSaveAttempt, h.OnSaveAttempt)
		out.OnStatusChange = chain(out.OnStatusChange, h.OnStatusChange)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
