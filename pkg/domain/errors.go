package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFlowNotFound is returned when a form id cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrProgressNotFound is returned when a respondent session has no stored progress.
var ErrProgressNotFound = errors.New("progress not found")

// ErrNodeNotFound is returned when an editor operation references an unknown node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when a new question or ending reuses an existing id.
var ErrDuplicateNode = errors.New("node id already exists")

// ErrEdgeNotFound is returned when an editor operation references an unknown edge.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrInvalidEdge is returned when an edge cannot connect the given nodes.
var ErrInvalidEdge = errors.New("invalid edge")

// ErrInvalidGraph is returned when a submitted node/edge graph cannot be reconciled.
var ErrInvalidGraph = errors.New("invalid graph")

// ErrStartNode is returned when an operation would remove or target the synthetic start node.
var ErrStartNode = errors.New("operation not allowed on start node")

// ErrInvalidFlow is returned when a flow fails hard validation and cannot be saved.
var ErrInvalidFlow = errors.New("flow failed validation")

// ErrSessionClosed is returned when a respondent session no longer accepts answers.
var ErrSessionClosed = errors.New("session closed")

// ErrInvalidTransition is returned when a session status change is not allowed.
var ErrInvalidTransition = errors.New("invalid session transition")

// StatusError carries a non-2xx response from a remote collaborator.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("remote returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// RateLimited reports whether the remote asked us to back off.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// InvalidFlowError wraps a failing validation report.
type InvalidFlowError struct {
	Report *ValidationReport
}

func (e *InvalidFlowError) Error() string {
	if e.Report == nil || len(e.Report.Errors) == 0 {
		return ErrInvalidFlow.Error()
	}
	first := e.Report.Errors[0]
	if len(e.Report.Errors) == 1 {
		return fmt.Sprintf("%s: %s", ErrInvalidFlow, first.Message)
	}
	return fmt.Sprintf("%s: %s (and %d more)", ErrInvalidFlow, first.Message, len(e.Report.Errors)-1)
}

func (e *InvalidFlowError) Unwrap() error {
	return ErrInvalidFlow
}

// ErrInvalidAnswer is returned when an answer violates its question's declared rules.
var ErrInvalidAnswer = errors.New("invalid answer")

// ValidationError describes why a single answer was rejected.
type ValidationError struct {
	QuestionID string `json:"questionId"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidAnswer, e.QuestionID, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAnswer
}
