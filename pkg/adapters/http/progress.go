package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hificopy/formflow/pkg/answers"
	"github.com/hificopy/formflow/pkg/domain"
)

type resolveRequest struct {
	Current int            `json:"current"`
	Answers domain.Answers `json:"answers"`
}

type resolveResponse struct {
	domain.Decision
	QuestionID string `json:"questionId,omitempty"`
}

// Resolve handles POST /forms/{id}/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	flow, err := s.forms.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	d := s.engine.ResolveFlow(r.Context(), req.Current, flow, req.Answers)
	resp := resolveResponse{Decision: d}
	if !d.Action.Terminal() && d.NextIndex >= 0 && d.NextIndex < len(flow.Questions) {
		resp.QuestionID = flow.Questions[d.NextIndex].ID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type scoreRequest struct {
	Answers domain.Answers `json:"answers"`
}

// Score handles POST /forms/{id}/score.
func (s *Server) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	flow, err := s.forms.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Score(r.Context(), flow.Questions, req.Answers))
}

// SaveProgress handles POST /forms/{id}/progress: the answer persistence and
// qualification collaborator of the auto-save pipeline.
//
// The delta is sanitized and validated against the declared per-question
// rules, merged into the stored progress and re-qualified. A session that is
// already DISQUALIFIED or BOOKED keeps its answers and reports its state.
func (s *Server) SaveProgress(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "id")
	var update domain.ProgressUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		s.writeError(w, err)
		return
	}
	if update.FormID != "" && update.FormID != formID {
		s.writeError(w, fmt.Errorf("%w: body form %q does not match path form %q", errBadRequest, update.FormID, formID))
		return
	}
	if update.Answers == nil {
		update.Answers = domain.Answers{}
	}
	if err := answers.SanitizeAll(update.Answers); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	flow, err := s.forms.Load(r.Context(), formID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.validateDelta(flow, update.Answers); err != nil {
		s.writeError(w, err)
		return
	}

	sessionID := update.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var result domain.SaveResult
	err = s.forms.WithLock(r.Context(), formID+"/"+sessionID, func(ctx context.Context) error {
		var err error
		result, err = s.saveProgress(ctx, flow, sessionID, update)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// Required answers are enforced on submit, not on every partial save.
func (s *Server) validateDelta(flow *domain.Flow, delta domain.Answers) error {
	for id, value := range delta {
		q := flow.Question(id)
		if q == nil || value == nil {
			continue
		}
		optional := *q
		optional.Required = false
		if err := answers.Validate(&optional, value, s.policy); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) saveProgress(ctx context.Context, flow *domain.Flow, sessionID string, update domain.ProgressUpdate) (domain.SaveResult, error) {
	progress, err := s.progress.Load(ctx, flow.ID, sessionID)
	switch {
	case errors.Is(err, domain.ErrProgressNotFound):
		progress = &domain.Progress{
			FormID:    flow.ID,
			SessionID: sessionID,
			Answers:   domain.Answers{},
			Status:    domain.StatusNew,
		}
	case err != nil:
		return domain.SaveResult{}, err
	}

	result := domain.SaveResult{SessionID: sessionID}
	if progress.Status.Suppressed() {
		result.Disqualified = progress.Status == domain.StatusDisqualified
		result.Reason = progress.Reason
		return result, nil
	}

	if progress.Answers == nil {
		progress.Answers = domain.Answers{}
	}
	progress.Answers.Merge(update.Answers)
	progress.CurrentStep = update.CurrentStep

	q := s.engine.Qualify(ctx, flow, progress.Answers)
	next := progress.Status
	switch {
	case q.Disqualified:
		next = domain.StatusDisqualified
		progress.Reason = q.Reason
	case q.Qualification == domain.QualificationQualified:
		next = domain.StatusQualified
	case progress.Status == domain.StatusNew:
		next = domain.StatusInProgress
	}
	if next != progress.Status && progress.Status.CanTransition(next) {
		s.logger.Info("session status changed",
			"form_id", flow.ID,
			"session_id", sessionID,
			"from", progress.Status,
			"to", next,
		)
		progress.Status = next
	}

	if err := s.progress.Save(ctx, progress); err != nil {
		return domain.SaveResult{}, fmt.Errorf("failed to save progress: %w", err)
	}

	result.Disqualified = progress.Status == domain.StatusDisqualified
	result.Reason = progress.Reason
	return result, nil
}

// GetProgress handles GET /forms/{id}/progress/{sessionID}.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.progress.Load(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// ListProgress handles GET /forms/{id}/progress.
func (s *Server) ListProgress(w http.ResponseWriter, r *http.Request) {
	ids, err := s.progress.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// BookSession handles POST /forms/{id}/progress/{sessionID}/book.
// Only QUALIFIED sessions can book a meeting.
func (s *Server) BookSession(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "id")
	sessionID := chi.URLParam(r, "sessionID")

	var progress *domain.Progress
	err := s.forms.WithLock(r.Context(), formID+"/"+sessionID, func(ctx context.Context) error {
		var err error
		progress, err = s.progress.Load(ctx, formID, sessionID)
		if err != nil {
			return err
		}
		if !progress.Status.CanTransition(domain.StatusBooked) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, progress.Status, domain.StatusBooked)
		}
		progress.Status = domain.StatusBooked
		return s.progress.Save(ctx, progress)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}
