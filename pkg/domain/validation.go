package domain

import "fmt"

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by the graph validator.
const (
	IssueDanglingTarget  = "dangling_target"
	IssueDanglingField   = "dangling_field"
	IssueSelfLoop        = "self_loop"
	IssueUnreachable     = "unreachable"
	IssueUnknownScoreKey = "unknown_score_key"
	IssueDuplicateID     = "duplicate_id"
	IssueEmptyID         = "empty_id"
	IssueReservedID      = "reserved_id"
	IssueUnknownType     = "unknown_type"
	IssueUnknownOperator = "unknown_operator"
	IssueUnknownAction   = "unknown_action"
)

// Issue is a single validation finding, reported with the offending id.
type Issue struct {
	Severity   Severity `json:"severity"`
	Code       string   `json:"code"`
	QuestionID string   `json:"questionId,omitempty"`
	RuleIndex  int      `json:"ruleIndex"`
	Ref        string   `json:"ref,omitempty"`
	Message    string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
}

// ValidationReport is the advisory result of validating a flow.
// Valid is false only when hard errors are present.
type ValidationReport struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Add appends an issue to the matching list and keeps Valid in sync.
func (r *ValidationReport) Add(issue Issue) {
	if issue.Severity == SeverityError {
		r.Errors = append(r.Errors, issue)
	} else {
		r.Warnings = append(r.Warnings, issue)
	}
	r.Valid = len(r.Errors) == 0
}
