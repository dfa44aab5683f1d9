package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/workflow"
)

type saveFormResponse struct {
	Flow   *domain.Flow             `json:"flow"`
	Report *domain.ValidationReport `json:"report"`
}

// ListForms handles GET /forms.
func (s *Server) ListForms(w http.ResponseWriter, r *http.Request) {
	ids, err := s.forms.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"forms": ids})
}

// GetForm handles GET /forms/{id}.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	flow, err := s.forms.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, flow)
}

// PutForm handles PUT /forms/{id}. The save is rejected with 422 and the
// validation report when the flow has hard errors.
func (s *Server) PutForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var flow domain.Flow
	if err := decodeJSON(w, r, &flow); err != nil {
		s.writeError(w, err)
		return
	}
	if flow.ID != "" && flow.ID != id {
		s.writeError(w, fmt.Errorf("%w: body id %q does not match path id %q", errBadRequest, flow.ID, id))
		return
	}
	flow.ID = id

	saved, report, err := s.forms.Save(r.Context(), &flow)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.flowSaved(saved)
	s.writeJSON(w, http.StatusOK, saveFormResponse{Flow: saved, Report: report})
}

// DeleteForm handles DELETE /forms/{id}.
func (s *Server) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.forms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateForm handles POST /forms/{id}/validate for the stored flow.
func (s *Server) ValidateForm(w http.ResponseWriter, r *http.Request) {
	flow, err := s.forms.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.forms.Validate(r.Context(), flow))
}

// GetGraph handles GET /forms/{id}/graph. ?rules=true adds read-only rule edges.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	flow, err := s.forms.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.derive(r, flow))
}

// PutGraph handles PUT /forms/{id}/graph by reconciling the submitted
// node/edge view into the stored flow.
func (s *Server) PutGraph(w http.ResponseWriter, r *http.Request) {
	var g domain.Graph
	if err := decodeJSON(w, r, &g); err != nil {
		s.writeError(w, err)
		return
	}
	s.edit(w, r, func(f *domain.Flow) error {
		return workflow.Reconcile(f, g)
	}, func(saved *domain.Flow) (int, any) {
		return http.StatusOK, s.derive(r, saved)
	})
}

type addNodeRequest struct {
	Kind            domain.NodeKind     `json:"kind"`
	Source          string              `json:"source,omitempty"`
	ID              string              `json:"id,omitempty"`
	Type            domain.QuestionType `json:"type,omitempty"`
	Title           string              `json:"title,omitempty"`
	Message         string              `json:"message,omitempty"`
	MarkAsQualified *bool               `json:"mark_as_qualified,omitempty"`
	Position        *domain.Position    `json:"position,omitempty"`
}

// AddNode handles POST /forms/{id}/nodes. The body names the source node
// the author dragged from; the created node is returned.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var created string
	s.edit(w, r, func(f *domain.Flow) error {
		switch req.Kind {
		case domain.NodeKindQuestion, "":
			q, err := workflow.AddQuestion(f, workflow.AddQuestionParams{
				Source:   req.Source,
				ID:       req.ID,
				Type:     req.Type,
				Title:    req.Title,
				Position: req.Position,
			})
			if err != nil {
				return err
			}
			created = q.ID
		case domain.NodeKindEnd:
			e, err := workflow.AddEnding(f, workflow.AddEndingParams{
				Source:          req.Source,
				ID:              req.ID,
				Title:           req.Title,
				Message:         req.Message,
				MarkAsQualified: req.MarkAsQualified,
				Position:        req.Position,
			})
			if err != nil {
				return err
			}
			created = e.ID
		default:
			return fmt.Errorf("%w: cannot add node of kind %q", errBadRequest, req.Kind)
		}
		return nil
	}, func(saved *domain.Flow) (int, any) {
		for _, n := range workflow.Derive(saved).Nodes {
			if n.ID == created {
				return http.StatusCreated, n
			}
		}
		return http.StatusCreated, nil
	})
}

// DeleteNode handles DELETE /forms/{id}/nodes/{nodeID}.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, func(f *domain.Flow) error {
		return workflow.DeleteNode(f, nodeID)
	}, func(saved *domain.Flow) (int, any) {
		return http.StatusOK, s.derive(r, saved)
	})
}

// MoveNode handles PUT /forms/{id}/nodes/{nodeID}/position.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if err := decodeJSON(w, r, &pos); err != nil {
		s.writeError(w, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, func(f *domain.Flow) error {
		return workflow.MoveNode(f, nodeID, pos)
	}, func(*domain.Flow) (int, any) {
		return http.StatusNoContent, nil
	})
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Connect handles POST /forms/{id}/edges.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	var edge domain.Edge
	s.edit(w, r, func(f *domain.Flow) error {
		var err error
		edge, err = workflow.Connect(f, req.Source, req.Target, req.Label)
		return err
	}, func(*domain.Flow) (int, any) {
		return http.StatusCreated, edge
	})
}

// Disconnect handles DELETE /forms/{id}/edges/{edgeID}.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	s.edit(w, r, func(f *domain.Flow) error {
		return workflow.Disconnect(f, edgeID)
	}, func(*domain.Flow) (int, any) {
		return http.StatusNoContent, nil
	})
}

// SetRules handles PUT /forms/{id}/questions/{qid}/rules.
func (s *Server) SetRules(w http.ResponseWriter, r *http.Request) {
	var rules []domain.Rule
	if err := decodeJSON(w, r, &rules); err != nil {
		s.writeError(w, err)
		return
	}
	qid := chi.URLParam(r, "qid")
	s.edit(w, r, func(f *domain.Flow) error {
		return workflow.SetRules(f, qid, rules)
	}, func(saved *domain.Flow) (int, any) {
		return http.StatusOK, saved.Question(qid)
	})
}

// edit runs an editor gesture through the manager and renders the saved flow.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*domain.Flow) error, render func(*domain.Flow) (int, any)) {
	saved, _, err := s.forms.Edit(r.Context(), chi.URLParam(r, "id"), fn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.flowSaved(saved)
	status, body := render(saved)
	if body == nil {
		w.WriteHeader(status)
		return
	}
	s.writeJSON(w, status, body)
}

func (s *Server) derive(r *http.Request, flow *domain.Flow) domain.Graph {
	if r.URL.Query().Get("rules") == "true" {
		return workflow.Derive(flow, workflow.WithRuleEdges())
	}
	return workflow.Derive(flow)
}
