/*
Package workflow keeps the visual node/edge editor consistent with the canonical flow.

The canonical model is the linear list of questions and endings held by a
domain.Flow. The graph shown by the editor is a derived view: Derive rebuilds
it from the flow, and every editor gesture (add, delete, move, connect) is a
mutation of the flow, never of the view. Node ids are the question and ending
ids, so the two sides reconcile without a mapping table.

Edges are authored connections stored in Flow.Layout. They do not encode
behaviour: a drawn edge with no rule behind it is a plain fallthrough, and
rules are never regenerated from edges (or edges from rules).

	f := &domain.Flow{ID: "demo"}
	q, _ := workflow.AddQuestion(f, workflow.AddQuestionParams{Source: domain.StartNodeID, Title: "Company size"})
	_, _ = workflow.AddQuestion(f, workflow.AddQuestionParams{Source: q.ID, Title: "Work email"})
	g := workflow.Derive(f)
*/
package workflow
