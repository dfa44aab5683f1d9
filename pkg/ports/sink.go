package ports

import (
	"context"

	"github.com/hificopy/formflow/pkg/domain"
)

// AnswerSink is the answer persistence and qualification collaborator.
// It receives answer deltas and may reply with an out-of-band disqualification.
// Non-2xx replies should be reported as *domain.StatusError.
type AnswerSink interface {
	SaveProgress(ctx context.Context, update domain.ProgressUpdate) (domain.SaveResult, error)
}

// AnswerSinkFunc adapts a function to an AnswerSink.
type AnswerSinkFunc func(ctx context.Context, update domain.ProgressUpdate) (domain.SaveResult, error)

// SaveProgress calls f.
func (f AnswerSinkFunc) SaveProgress(ctx context.Context, update domain.ProgressUpdate) (domain.SaveResult, error) {
	return f(ctx, update)
}
