package domain

// QuestionType is the closed set of input kinds a question can collect.
type QuestionType string

const (
	QuestionShortText    QuestionType = "short-text"
	QuestionLongText     QuestionType = "long-text"
	QuestionEmail        QuestionType = "email"
	QuestionPhone        QuestionType = "phone"
	QuestionNumber       QuestionType = "number"
	QuestionDate         QuestionType = "date"
	QuestionRating       QuestionType = "rating"
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice"
	QuestionFile         QuestionType = "file"
)

// Rating bounds for QuestionRating answers.
const (
	RatingMin = 1
	RatingMax = 5
)

var knownQuestionTypes = map[QuestionType]bool{
	QuestionShortText:    true,
	QuestionLongText:     true,
	QuestionEmail:        true,
	QuestionPhone:        true,
	QuestionNumber:       true,
	QuestionDate:         true,
	QuestionRating:       true,
	QuestionSingleChoice: true,
	QuestionMultiChoice:  true,
	QuestionFile:         true,
}

// Known reports whether t belongs to the closed set of question types.
func (t QuestionType) Known() bool {
	return knownQuestionTypes[t]
}

// IsChoice reports whether answers are drawn from the question options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultiChoice
}

// Question is a single step of a flow.
// The id is stable and unique within a flow; it is never re-created on edits.
type Question struct {
	ID          string         `json:"id"`
	Type        QuestionType   `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Options     []string       `json:"options,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`

	LeadScoringEnabled bool           `json:"lead_scoring_enabled"`
	LeadScoring        map[string]int `json:"lead_scoring,omitempty"`

	ConditionalLogic []Rule `json:"conditional_logic,omitempty"`

	// DisqualificationMessage is shown when one of this question's rules disqualifies.
	DisqualificationMessage string `json:"disqualification_message,omitempty"`

	// Terminal-screen override.
	ShowThankYou    bool   `json:"showThankYou,omitempty"`
	ThankYouTitle   string `json:"thank_you_title,omitempty"`
	ThankYouMessage string `json:"thank_you_message,omitempty"`
	RedirectURL     string `json:"redirect_url,omitempty"`
}

// Terminal reports whether answering this question ends the flow when no rule fires.
func (q *Question) Terminal() bool {
	return q.ShowThankYou
}

// HasOption reports whether opt is one of the declared options.
func (q *Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	if q.Settings != nil {
		out.Settings = make(map[string]any, len(q.Settings))
		for k, v := range q.Settings {
			out.Settings[k] = v
		}
	}
	if q.LeadScoring != nil {
		out.LeadScoring = make(map[string]int, len(q.LeadScoring))
		for k, v := range q.LeadScoring {
			out.LeadScoring[k] = v
		}
	}
	if q.ConditionalLogic != nil {
		out.ConditionalLogic = make([]Rule, len(q.ConditionalLogic))
		copy(out.ConditionalLogic, q.ConditionalLogic)
	}
	return out
}

// IndexOf returns the position of the question with the given id, or -1.
func IndexOf(questions []Question, id string) int {
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}
