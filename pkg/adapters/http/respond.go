package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hificopy/formflow/pkg/domain"
)

type errorResponse struct {
	Error      string                   `json:"error"`
	Code       string                   `json:"code,omitempty"`
	QuestionID string                   `json:"questionId,omitempty"`
	Report     *domain.ValidationReport `json:"report,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var (
		invalidFlow   *domain.InvalidFlowError
		invalidAnswer *domain.ValidationError
	)
	switch {
	case errors.As(err, &invalidFlow):
		status = http.StatusUnprocessableEntity
		resp.Report = invalidFlow.Report
	case errors.As(err, &invalidAnswer):
		status = http.StatusUnprocessableEntity
		resp.Code = invalidAnswer.Code
		resp.QuestionID = invalidAnswer.QuestionID
	case errors.Is(err, domain.ErrFlowNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrProgressNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateNode),
		errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidEdge),
		errors.Is(err, domain.ErrInvalidGraph),
		errors.Is(err, domain.ErrStartNode),
		errors.Is(err, domain.ErrInvalidFlow),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, resp)
}

var errBadRequest = errors.New("bad request")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}
