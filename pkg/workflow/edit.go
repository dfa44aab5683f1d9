package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hificopy/formflow/pkg/domain"
)

// DefaultQuestionTitle is used when a question node is added without a title.
const DefaultQuestionTitle = "Untitled question"

// AddQuestionParams describes an "add question" gesture.
// Source is the node the author dragged from, if any; it replaces any
// process-wide "current source node" state.
type AddQuestionParams struct {
	Source   string
	ID       string
	Type     domain.QuestionType
	Title    string
	Position *domain.Position
}

// AddQuestion creates a question with default fields.
//
// Without a source the question is appended. With a question (or start) as
// source it is inserted right after it, so the source's implicit advance
// reaches the new question, and an authored edge source->new is stored.
// No jump rule is created.
func AddQuestion(flow *domain.Flow, p AddQuestionParams) (*domain.Question, error) {
	id := p.ID
	if id == "" {
		id = uniqueID(flow, "q")
	}
	if flow.HasNode(id) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateNode, id)
	}

	insertAt := len(flow.Questions)
	if p.Source != "" {
		switch {
		case p.Source == domain.StartNodeID:
			insertAt = 0
		case flow.Question(p.Source) != nil:
			insertAt = domain.IndexOf(flow.Questions, p.Source) + 1
		case flow.Ending(p.Source) != nil:
			return nil, fmt.Errorf("%w: ending %q has no outgoing connections", domain.ErrInvalidEdge, p.Source)
		default:
			return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, p.Source)
		}
	}

	q := defaultQuestion(id, p.Type, p.Title)
	flow.Questions = append(flow.Questions, domain.Question{})
	copy(flow.Questions[insertAt+1:], flow.Questions[insertAt:])
	flow.Questions[insertAt] = q

	if p.Source != "" {
		flow.Layout.Edges = appendEdge(flow.Layout.Edges, p.Source, id, "")
	}
	placeNode(flow, id, p.Source, p.Position)

	return &flow.Questions[insertAt], nil
}

// AddEndingParams describes an "add ending" gesture.
type AddEndingParams struct {
	Source          string
	ID              string
	Title           string
	Message         string
	MarkAsQualified *bool
	Position        *domain.Position
}

// AddEnding appends an ending and, when a source question is given, an authored edge to it.
func AddEnding(flow *domain.Flow, p AddEndingParams) (*domain.Ending, error) {
	id := p.ID
	if id == "" {
		id = uniqueID(flow, "end")
	}
	if flow.HasNode(id) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateNode, id)
	}
	if p.Source != "" {
		if flow.Ending(p.Source) != nil {
			return nil, fmt.Errorf("%w: ending %q has no outgoing connections", domain.ErrInvalidEdge, p.Source)
		}
		if !flow.HasNode(p.Source) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, p.Source)
		}
	}

	title := p.Title
	if title == "" {
		title = "Thank you"
	}
	flow.Endings = append(flow.Endings, domain.Ending{
		ID:              id,
		Title:           title,
		Message:         p.Message,
		MarkAsQualified: p.MarkAsQualified,
	})

	if p.Source != "" {
		flow.Layout.Edges = appendEdge(flow.Layout.Edges, p.Source, id, "")
	}
	placeNode(flow, id, p.Source, p.Position)

	return &flow.Endings[len(flow.Endings)-1], nil
}

// DeleteNode removes a question or ending, every edge touching it and its position.
// Rules elsewhere that reference the id are left dangling for the validator to report.
func DeleteNode(flow *domain.Flow, id string) error {
	if id == domain.StartNodeID {
		return domain.ErrStartNode
	}

	switch {
	case flow.Question(id) != nil:
		i := domain.IndexOf(flow.Questions, id)
		flow.Questions = append(flow.Questions[:i], flow.Questions[i+1:]...)
	case flow.Ending(id) != nil:
		for i := range flow.Endings {
			if flow.Endings[i].ID == id {
				flow.Endings = append(flow.Endings[:i], flow.Endings[i+1:]...)
				break
			}
		}
	default:
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}

	kept := flow.Layout.Edges[:0]
	for _, e := range flow.Layout.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	flow.Layout.Edges = kept
	delete(flow.Layout.Positions, id)
	return nil
}

// MoveNode stores a new canvas position for a node.
func MoveNode(flow *domain.Flow, id string, pos domain.Position) error {
	if !flow.HasNode(id) {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	setPosition(flow, id, pos)
	return nil
}

// Connect stores an authored edge. Connecting an existing pair returns the
// existing edge unchanged.
func Connect(flow *domain.Flow, source, target, label string) (domain.Edge, error) {
	for _, id := range []string{source, target} {
		if !flow.HasNode(id) {
			return domain.Edge{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
	}
	if !validEndpoints(flow, source, target) {
		return domain.Edge{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidEdge, source, target)
	}

	for _, e := range flow.Layout.Edges {
		if e.Source == source && e.Target == target {
			return e, nil
		}
	}
	flow.Layout.Edges = appendEdge(flow.Layout.Edges, source, target, label)
	return flow.Layout.Edges[len(flow.Layout.Edges)-1], nil
}

// Disconnect removes an authored edge. Rules are not touched.
// The start edge into the first question is implied by question order and
// cannot be removed; reorder the questions instead.
func Disconnect(flow *domain.Flow, edgeID string) error {
	if len(flow.Questions) > 0 && edgeID == domain.EdgeID(domain.StartNodeID, flow.Questions[0].ID) {
		return fmt.Errorf("%w: %s is the entry edge", domain.ErrStartNode, edgeID)
	}
	for i, e := range flow.Layout.Edges {
		if e.ID == edgeID || (e.ID == "" && domain.EdgeID(e.Source, e.Target) == edgeID) {
			flow.Layout.Edges = append(flow.Layout.Edges[:i], flow.Layout.Edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrEdgeNotFound, edgeID)
}

// SetRules replaces a question's conditional logic. The edge set is not regenerated.
// Rules without an id get one.
func SetRules(flow *domain.Flow, questionID string, rules []domain.Rule) error {
	q := flow.Question(questionID)
	if q == nil {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, questionID)
	}
	out := make([]domain.Rule, len(rules))
	copy(out, rules)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = newID("rule")
		}
	}
	q.ConditionalLogic = out
	return nil
}

// UpdateQuestion edits a question in place. The id is immutable: a change made
// by fn is reverted.
func UpdateQuestion(flow *domain.Flow, id string, fn func(*domain.Question)) error {
	q := flow.Question(id)
	if q == nil {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	fn(q)
	q.ID = id
	return nil
}

// UpdateEnding edits an ending in place. The id is immutable.
func UpdateEnding(flow *domain.Flow, id string, fn func(*domain.Ending)) error {
	e := flow.Ending(id)
	if e == nil {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	fn(e)
	e.ID = id
	return nil
}

func defaultQuestion(id string, typ domain.QuestionType, title string) domain.Question {
	if typ == "" {
		typ = domain.QuestionShortText
	}
	if title == "" {
		title = DefaultQuestionTitle
	}
	q := domain.Question{ID: id, Type: typ, Title: title}
	if typ.IsChoice() {
		q.Options = []string{"Option 1", "Option 2"}
	}
	return q
}

func appendEdge(edges []domain.Edge, source, target, label string) []domain.Edge {
	id := domain.EdgeID(source, target)
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			return edges
		}
	}
	return append(edges, domain.Edge{ID: id, Source: source, Target: target, Label: label})
}

// placeNode stores an explicit position, or one row below the source when the
// source has a stored position. Otherwise Derive falls back to automatic layout.
func placeNode(flow *domain.Flow, id, source string, pos *domain.Position) {
	if pos != nil {
		setPosition(flow, id, *pos)
		return
	}
	if sp, ok := flow.Layout.Positions[source]; ok && source != "" {
		setPosition(flow, id, domain.Position{X: sp.X, Y: sp.Y + RowSpacing})
	}
}

func setPosition(flow *domain.Flow, id string, pos domain.Position) {
	if flow.Layout.Positions == nil {
		flow.Layout.Positions = make(map[string]domain.Position)
	}
	flow.Layout.Positions[id] = pos
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func uniqueID(flow *domain.Flow, prefix string) string {
	for {
		if id := newID(prefix); !flow.HasNode(id) {
			return id
		}
	}
}
