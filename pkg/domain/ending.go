package domain

// Ending is a terminal node of a flow with an associated qualification disposition.
type Ending struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	// MarkAsQualified is tri-state: nil is neutral.
	MarkAsQualified *bool  `json:"mark_as_qualified"`
	RedirectURL     string `json:"redirect_url,omitempty"`
	// CreateContact is consumed downstream and not evaluated by the engine.
	CreateContact bool `json:"create_contact"`
}

// Qualification is the tri-state outcome a respondent path resolves to.
type Qualification string

const (
	QualificationNeutral      Qualification = "neutral"
	QualificationQualified    Qualification = "qualified"
	QualificationDisqualified Qualification = "disqualified"
)

// Disposition maps MarkAsQualified onto a Qualification.
func (e *Ending) Disposition() Qualification {
	switch {
	case e == nil || e.MarkAsQualified == nil:
		return QualificationNeutral
	case *e.MarkAsQualified:
		return QualificationQualified
	default:
		return QualificationDisqualified
	}
}

// FindEnding returns the ending with the given id, or nil.
func FindEnding(endings []Ending, id string) *Ending {
	for i := range endings {
		if endings[i].ID == id {
			return &endings[i]
		}
	}
	return nil
}
