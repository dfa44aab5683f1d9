package tui

import (
	"fmt"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
)

// ReportMarkdown formats a validation report as markdown.
func ReportMarkdown(flowID string, report *domain.ValidationReport) string {
	var sb strings.Builder
	verdict := "valid"
	if !report.Valid {
		verdict = "invalid"
	}
	fmt.Fprintf(&sb, "# %s: %s\n\n", flowID, verdict)
	fmt.Fprintf(&sb, "%d error(s), %d warning(s)\n\n", len(report.Errors), len(report.Warnings))

	issues := append(append([]domain.Issue{}, report.Errors...), report.Warnings...)
	if len(issues) == 0 {
		return sb.String()
	}

	sb.WriteString("| Severity | Code | Question | Rule | Message |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, i := range issues {
		rule := "-"
		if i.RuleIndex >= 0 {
			rule = fmt.Sprintf("%d", i.RuleIndex)
		}
		fmt.Fprintf(&sb, "| %s | `%s` | %s | %s | %s |\n",
			i.Severity, i.Code, cell(i.QuestionID), rule, cell(i.Message))
	}
	return sb.String()
}

// ScoreMarkdown formats a score breakdown as markdown.
func ScoreMarkdown(score domain.Score) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Lead score: %d\n\n", score.Total)
	if len(score.Breakdown) == 0 {
		sb.WriteString("No scoring answers.\n")
		return sb.String()
	}
	sb.WriteString("| Question | Title | Points |\n")
	sb.WriteString("|---|---|---|\n")
	for _, e := range score.Breakdown {
		fmt.Fprintf(&sb, "| %s | %s | %d |\n", cell(e.QuestionID), cell(e.Title), e.Score)
	}
	return sb.String()
}

// DecisionMarkdown formats a navigation decision as markdown.
func DecisionMarkdown(flow *domain.Flow, d domain.Decision) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Decision: %s\n\n", d.Action)
	switch d.Action {
	case domain.NavAdvance, domain.NavJump:
		if d.NextIndex >= 0 && d.NextIndex < len(flow.Questions) {
			q := flow.Questions[d.NextIndex]
			fmt.Fprintf(&sb, "Next question **%s** (index %d): %s\n", q.ID, d.NextIndex, q.Title)
		}
	case domain.NavSubmit:
		if e := flow.Ending(d.EndingID); e != nil {
			fmt.Fprintf(&sb, "Ending **%s** (%s): %s\n", e.ID, e.Disposition(), e.Title)
		} else {
			sb.WriteString("Flow submitted.\n")
		}
	case domain.NavDisqualify:
		fmt.Fprintf(&sb, "> %s\n", d.Message)
	}
	if d.RuleIndex >= 0 {
		fmt.Fprintf(&sb, "\nRule %d fired.\n", d.RuleIndex)
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
