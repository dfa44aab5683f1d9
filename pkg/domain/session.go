package domain

// SessionStatus is the respondent session state machine.
//
//	NEW -> IN_PROGRESS -> {QUALIFIED | DISQUALIFIED} -> BOOKED (qualification flows only)
type SessionStatus string

const (
	StatusNew          SessionStatus = "NEW"
	StatusInProgress   SessionStatus = "IN_PROGRESS"
	StatusQualified    SessionStatus = "QUALIFIED"
	StatusDisqualified SessionStatus = "DISQUALIFIED"
	StatusBooked       SessionStatus = "BOOKED"
)

// Suppressed reports whether the status forbids further auto-save attempts.
func (s SessionStatus) Suppressed() bool {
	return s == StatusDisqualified || s == StatusBooked
}

// CanTransition reports whether moving from s to next is allowed.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case StatusNew:
		return next == StatusInProgress || next == StatusQualified || next == StatusDisqualified
	case StatusInProgress:
		return next == StatusQualified || next == StatusDisqualified
	case StatusQualified:
		return next == StatusBooked || next == StatusDisqualified
	}
	return false
}

// ProgressUpdate is the delta persisted to the answer collaborator.
type ProgressUpdate struct {
	FormID      string  `json:"formId,omitempty"`
	SessionID   string  `json:"sessionId,omitempty"`
	Answers     Answers `json:"answers"`
	CurrentStep int     `json:"currentStep"`
}

// SaveResult is the answer collaborator's reply. Disqualified is an
// out-of-band signal from server-side rule re-evaluation.
type SaveResult struct {
	SessionID    string `json:"sessionId,omitempty"`
	LeadID       string `json:"leadId,omitempty"`
	Disqualified bool   `json:"disqualified"`
	Reason       string `json:"reason,omitempty"`
}

// Progress is the server-side record of a respondent session.
type Progress struct {
	FormID      string        `json:"formId"`
	SessionID   string        `json:"sessionId"`
	Answers     Answers       `json:"answers"`
	CurrentStep int           `json:"currentStep"`
	Status      SessionStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
}
