package domain

import "time"

// FlowKind distinguishes plain forms from meeting-qualification flows.
type FlowKind string

const (
	FlowKindForm          FlowKind = "form"
	FlowKindQualification FlowKind = "qualification"
)

// StartNodeID is the reserved id of the synthetic start node.
const StartNodeID = "start"

// Position is a point on the visual editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout stores the authored visual layer: node positions and drawn edges.
// Edges represent authored connections; they are not derived from rules.
type Layout struct {
	Positions map[string]Position `json:"positions,omitempty"`
	Edges     []Edge              `json:"edges,omitempty"`
}

// Flow is the serializable Question Graph Model keyed by a form id.
// Questions are the authoritative linear list; the node/edge view is derived.
type Flow struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Kind      FlowKind   `json:"kind,omitempty"`
	Questions []Question `json:"questions"`
	Endings   []Ending   `json:"endings,omitempty"`
	Layout    Layout     `json:"layout"`
	Version   int        `json:"version,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the flow so editors can mutate without aliasing.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	out := *f
	out.Questions = make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		out.Questions[i] = q.Clone()
	}
	out.Endings = make([]Ending, len(f.Endings))
	for i, e := range f.Endings {
		out.Endings[i] = e
		if e.MarkAsQualified != nil {
			v := *e.MarkAsQualified
			out.Endings[i].MarkAsQualified = &v
		}
	}
	out.Layout.Positions = make(map[string]Position, len(f.Layout.Positions))
	for k, v := range f.Layout.Positions {
		out.Layout.Positions[k] = v
	}
	out.Layout.Edges = append([]Edge(nil), f.Layout.Edges...)
	return &out
}

// Question returns the question with the given id, or nil.
func (f *Flow) Question(id string) *Question {
	if i := IndexOf(f.Questions, id); i >= 0 {
		return &f.Questions[i]
	}
	return nil
}

// Ending returns the ending with the given id, or nil.
func (f *Flow) Ending(id string) *Ending {
	return FindEnding(f.Endings, id)
}

// HasNode reports whether id names the start node, a question or an ending.
func (f *Flow) HasNode(id string) bool {
	return id == StartNodeID || f.Question(id) != nil || f.Ending(id) != nil
}
