package domain

// NavAction is the outcome kind produced by the navigation resolver.
type NavAction string

const (
	NavAdvance    NavAction = "advance"
	NavJump       NavAction = "jump"
	NavSubmit     NavAction = "submit"
	NavDisqualify NavAction = "disqualify"
)

// Terminal reports whether the action ends the flow.
func (a NavAction) Terminal() bool {
	return a == NavSubmit || a == NavDisqualify
}

// Decision is the result of resolving the next position.
// NextIndex is only meaningful for advance and jump; it is always encoded
// so a move to the first question reads as 0.
type Decision struct {
	Action    NavAction `json:"action"`
	NextIndex int       `json:"nextIndex"`
	Message   string    `json:"message,omitempty"`
	// EndingID is set when a jump targets an ending.
	EndingID string `json:"endingId,omitempty"`
	// RuleIndex is the winning rule position, -1 when no rule fired.
	RuleIndex int `json:"ruleIndex"`
}

// ScoreEntry is a single non-zero contribution in a score breakdown.
type ScoreEntry struct {
	QuestionID string `json:"questionId"`
	Title      string `json:"title"`
	Score      int    `json:"score"`
}

// Score is the aggregated lead score over all scoring-enabled questions.
type Score struct {
	Total     int          `json:"total"`
	Breakdown []ScoreEntry `json:"breakdown"`
}

// QualificationResult is the outcome of re-evaluating a respondent's answers.
type QualificationResult struct {
	Disqualified  bool          `json:"disqualified"`
	Reason        string        `json:"reason,omitempty"`
	QuestionID    string        `json:"questionId,omitempty"`
	EndingID      string        `json:"endingId,omitempty"`
	Qualification Qualification `json:"qualification"`
	Score         Score         `json:"score"`
}
