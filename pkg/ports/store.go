package ports

import (
	"context"

	"github.com/hificopy/formflow/pkg/domain"
)

// FlowStore persists flow documents keyed by form id.
type FlowStore interface {
	// Save stores the flow under flow.ID, replacing any previous version.
	Save(ctx context.Context, flow *domain.Flow) error

	// Load retrieves a flow. Returns domain.ErrFlowNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Flow, error)

	// Delete removes a flow. Deleting a missing flow is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored flows.
	List(ctx context.Context) ([]string, error)
}

// ProgressStore persists respondent progress keyed by form id and session id.
type ProgressStore interface {
	Save(ctx context.Context, progress *domain.Progress) error

	// Load returns domain.ErrProgressNotFound if the session has no progress.
	Load(ctx context.Context, formID, sessionID string) (*domain.Progress, error)

	Delete(ctx context.Context, formID, sessionID string) error

	// List returns the session ids with progress for a form.
	List(ctx context.Context, formID string) ([]string, error)
}
