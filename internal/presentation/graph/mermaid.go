package graph

import (
	"fmt"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/rules"
)

// Synthetic targets for rules that end the flow without an ending node.
const (
	submitNode       = "__submit"
	disqualifiedNode = "__disqualified"
)

// Overlay contains a respondent path to highlight on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// GenerateMermaid produces a Mermaid flowchart of the runtime paths of a flow.
// Shapes:
// - Start: ((Circle))
// - Question: [/Parallelogram/]
// - Ending: ([Stadium]), styled by qualification
// Solid arrows are linear fallthrough, labelled arrows are rules and dotted
// arrows are disqualifications.
func GenerateMermaid(flow *domain.Flow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"start\"))\n", domain.StartNodeID))

	for _, q := range flow.Questions {
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", sanitizeMermaidID(q.ID), label(q.ID, q.Title)))
	}
	for _, e := range flow.Endings {
		sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", sanitizeMermaidID(e.ID), label(e.ID, e.Title)))
	}

	var usesSubmit, usesDisqualified bool
	if len(flow.Questions) > 0 {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", domain.StartNodeID, sanitizeMermaidID(flow.Questions[0].ID)))
	}
	for i := range flow.Questions {
		q := &flow.Questions[i]
		from := sanitizeMermaidID(q.ID)

		for _, r := range q.ConditionalLogic {
			cond := conditionLabel(q.ID, r.Condition)
			switch r.Action {
			case domain.ActionJump:
				if r.ThenGoTo == "" || !flow.HasNode(r.ThenGoTo) {
					continue
				}
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, cond, sanitizeMermaidID(r.ThenGoTo)))
			case domain.ActionSubmit:
				usesSubmit = true
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, cond, submitNode))
			case domain.ActionDisqualify:
				usesDisqualified = true
				sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", from, cond, disqualifiedNode))
			}
		}

		if q.Terminal() || i == len(flow.Questions)-1 {
			usesSubmit = true
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, submitNode))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, sanitizeMermaidID(flow.Questions[i+1].ID)))
	}

	if usesSubmit {
		sb.WriteString(fmt.Sprintf("    %s((\"submit\"))\n", submitNode))
	}
	if usesDisqualified {
		sb.WriteString(fmt.Sprintf("    %s((\"disqualified\"))\n", disqualifiedNode))
	}

	sb.WriteString("\n    %% Qualification Styles\n")
	sb.WriteString("    classDef qualified fill:#e8f5e9,stroke:#2e7d32,color:#000;\n")
	sb.WriteString("    classDef disqualified fill:#ffebee,stroke:#c62828,color:#000;\n")
	for _, e := range flow.Endings {
		switch e.Disposition() {
		case domain.QualificationQualified:
			sb.WriteString(fmt.Sprintf("    class %s qualified;\n", sanitizeMermaidID(e.ID)))
		case domain.QualificationDisqualified:
			sb.WriteString(fmt.Sprintf("    class %s disqualified;\n", sanitizeMermaidID(e.ID)))
		}
	}
	if usesDisqualified {
		sb.WriteString(fmt.Sprintf("    class %s disqualified;\n", disqualifiedNode))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func label(id, title string) string {
	if title == "" {
		return escape(id)
	}
	return escape(id) + "<br/>" + escape(title)
}

func conditionLabel(owner string, c domain.Condition) string {
	var parts []string
	if c.Field != "" && c.Field != owner {
		parts = append(parts, c.Field)
	}
	parts = append(parts, string(c.Operator))
	if c.Operator != domain.OpIsEmpty && c.Operator != domain.OpIsNotEmpty {
		parts = append(parts, rules.Stringify(c.Value))
	}
	return escape(strings.Join(parts, " "))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
