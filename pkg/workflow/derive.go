package workflow

import (
	"strconv"

	"github.com/hificopy/formflow/pkg/domain"
)

// Automatic layout used for nodes without a stored position.
const (
	ColumnSpacing = 320.0
	RowSpacing    = 140.0
)

// DeriveOption configures Derive.
type DeriveOption func(*deriveConfig)

type deriveConfig struct {
	ruleEdges bool
}

// WithRuleEdges adds a read-only edge for every jump rule whose target exists.
// Rule edges are labelled with the rule action and never stored in the layout.
func WithRuleEdges() DeriveOption {
	return func(c *deriveConfig) {
		c.ruleEdges = true
	}
}

// Derive builds the node/edge view of a flow.
// It is a pure function of the flow: deriving twice yields identical graphs.
func Derive(flow *domain.Flow, opts ...DeriveOption) domain.Graph {
	cfg := deriveConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := domain.Graph{Nodes: []domain.Node{}, Edges: []domain.Edge{}}
	if flow == nil {
		return g
	}

	g.Nodes = append(g.Nodes, domain.Node{
		ID:       domain.StartNodeID,
		Kind:     domain.NodeKindStart,
		Position: positionOf(flow, domain.StartNodeID, domain.Position{}),
		Payload:  domain.NodePayload{Title: "Start", Index: -1},
	})

	for i := range flow.Questions {
		q := &flow.Questions[i]
		g.Nodes = append(g.Nodes, domain.Node{
			ID:       q.ID,
			Kind:     domain.NodeKindQuestion,
			Position: positionOf(flow, q.ID, domain.Position{X: 0, Y: float64(i+1) * RowSpacing}),
			Payload: domain.NodePayload{
				Title: q.Title,
				Type:  q.Type,
				Index: i,
				Rules: len(q.ConditionalLogic),
			},
		})
	}

	for i := range flow.Endings {
		e := &flow.Endings[i]
		g.Nodes = append(g.Nodes, domain.Node{
			ID:       e.ID,
			Kind:     domain.NodeKindEnd,
			Position: positionOf(flow, e.ID, domain.Position{X: ColumnSpacing, Y: float64(i+1) * RowSpacing}),
			Payload: domain.NodePayload{
				Title:         e.Title,
				Index:         i,
				Qualification: e.Disposition(),
			},
		})
	}

	g.Edges = append(g.Edges, authoredEdges(flow)...)
	if cfg.ruleEdges {
		g.Edges = append(g.Edges, ruleEdges(flow)...)
	}
	return g
}

// authoredEdges returns the stored edges whose endpoints still exist,
// without duplicates, in stored order. A flow with questions and no edge out
// of start gets the implicit start edge to the first question.
func authoredEdges(flow *domain.Flow) []domain.Edge {
	out := make([]domain.Edge, 0, len(flow.Layout.Edges)+1)
	seen := make(map[string]bool, len(flow.Layout.Edges))
	fromStart := false

	for _, e := range flow.Layout.Edges {
		if !validEndpoints(flow, e.Source, e.Target) {
			continue
		}
		key := domain.EdgeID(e.Source, e.Target)
		if seen[key] {
			continue
		}
		seen[key] = true
		if e.ID == "" {
			e.ID = key
		}
		if e.Source == domain.StartNodeID {
			fromStart = true
		}
		out = append(out, e)
	}

	if !fromStart && len(flow.Questions) > 0 {
		first := flow.Questions[0].ID
		out = append([]domain.Edge{{
			ID:     domain.EdgeID(domain.StartNodeID, first),
			Source: domain.StartNodeID,
			Target: first,
		}}, out...)
	}
	return out
}

func ruleEdges(flow *domain.Flow) []domain.Edge {
	var out []domain.Edge
	for _, q := range flow.Questions {
		for i, r := range q.ConditionalLogic {
			if r.Action != domain.ActionJump || r.ThenGoTo == "" || r.ThenGoTo == q.ID {
				continue
			}
			if flow.Question(r.ThenGoTo) == nil && flow.Ending(r.ThenGoTo) == nil {
				continue
			}
			out = append(out, domain.Edge{
				ID:     ruleEdgeID(q.ID, i),
				Source: q.ID,
				Target: r.ThenGoTo,
				Label:  string(r.Action),
			})
		}
	}
	return out
}

func ruleEdgeID(questionID string, index int) string {
	return "r-" + questionID + "-" + strconv.Itoa(index)
}

func positionOf(flow *domain.Flow, id string, fallback domain.Position) domain.Position {
	if p, ok := flow.Layout.Positions[id]; ok {
		return p
	}
	return fallback
}

// validEndpoints reports whether an edge from source to target may exist:
// both nodes exist, nothing enters start, nothing leaves an ending and no node
// connects to itself.
func validEndpoints(flow *domain.Flow, source, target string) bool {
	if source == "" || target == "" || source == target {
		return false
	}
	if target == domain.StartNodeID || flow.Ending(source) != nil {
		return false
	}
	return flow.HasNode(source) && flow.HasNode(target)
}
