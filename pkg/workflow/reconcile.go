package workflow

import (
	"fmt"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
)

// Reconcile writes a graph submitted by the visual editor back into the flow.
//
// Nodes missing from the graph are deleted (with their edges), unknown question
// and end nodes are created with default fields, positions and titles are taken
// from the nodes, and the authored edge set is replaced by the graph edges.
// Question order and rules are never changed by the graph. The flow is left
// untouched when an error is returned.
func Reconcile(flow *domain.Flow, g domain.Graph) error {
	next := flow.Clone()

	kinds := make(map[string]domain.NodeKind, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", domain.ErrInvalidGraph)
		}
		if _, dup := kinds[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %q", domain.ErrInvalidGraph, n.ID)
		}
		if (n.Kind == domain.NodeKindStart) != (n.ID == domain.StartNodeID) {
			return fmt.Errorf("%w: node %q cannot be of kind %q", domain.ErrInvalidGraph, n.ID, n.Kind)
		}
		switch n.Kind {
		case domain.NodeKindStart:
		case domain.NodeKindQuestion:
			if next.Ending(n.ID) != nil {
				return fmt.Errorf("%w: %q is an ending", domain.ErrInvalidGraph, n.ID)
			}
		case domain.NodeKindEnd:
			if next.Question(n.ID) != nil {
				return fmt.Errorf("%w: %q is a question", domain.ErrInvalidGraph, n.ID)
			}
		default:
			return fmt.Errorf("%w: node %q has unknown kind %q", domain.ErrInvalidGraph, n.ID, n.Kind)
		}
		kinds[n.ID] = n.Kind
	}

	var gone []string
	for _, q := range next.Questions {
		if _, ok := kinds[q.ID]; !ok {
			gone = append(gone, q.ID)
		}
	}
	for _, e := range next.Endings {
		if _, ok := kinds[e.ID]; !ok {
			gone = append(gone, e.ID)
		}
	}
	for _, id := range gone {
		if err := DeleteNode(next, id); err != nil {
			return err
		}
	}

	for _, n := range g.Nodes {
		switch n.Kind {
		case domain.NodeKindQuestion:
			if q := next.Question(n.ID); q != nil {
				if n.Payload.Title != "" {
					q.Title = n.Payload.Title
				}
			} else {
				next.Questions = append(next.Questions, defaultQuestion(n.ID, n.Payload.Type, n.Payload.Title))
			}
		case domain.NodeKindEnd:
			if e := next.Ending(n.ID); e != nil {
				if n.Payload.Title != "" {
					e.Title = n.Payload.Title
				}
			} else {
				next.Endings = append(next.Endings, domain.Ending{ID: n.ID, Title: n.Payload.Title})
			}
		}
		setPosition(next, n.ID, n.Position)
	}

	edges := make([]domain.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if strings.HasPrefix(e.ID, "r-") {
			// Derived from a rule, not authored.
			continue
		}
		if !validEndpoints(next, e.Source, e.Target) {
			continue
		}
		before := len(edges)
		edges = appendEdge(edges, e.Source, e.Target, e.Label)
		if len(edges) > before && e.ID != "" {
			edges[len(edges)-1].ID = e.ID
		}
	}
	next.Layout.Edges = edges

	*flow = *next
	return nil
}
