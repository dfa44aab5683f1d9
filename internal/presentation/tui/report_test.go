package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hificopy/formflow/internal/presentation/tui"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestReportMarkdown(t *testing.T) {
	report := &domain.ValidationReport{
		Errors: []domain.Issue{{
			Severity: domain.SeverityError, Code: domain.IssueDanglingTarget,
			QuestionID: "size", RuleIndex: 1, Message: "jumps to a|b",
		}},
		Warnings: []domain.Issue{{
			Severity: domain.SeverityWarning, Code: domain.IssueUnreachable,
			QuestionID: "email", RuleIndex: -1, Message: "unreachable",
		}},
	}

	md := tui.ReportMarkdown("demo", report)

	assert.Contains(t, md, "# demo: invalid")
	assert.Contains(t, md, "1 error(s), 1 warning(s)")
	assert.Contains(t, md, "| error | `dangling_target` | size | 1 | jumps to a\\|b |")
	assert.Contains(t, md, "| warning | `unreachable` | email | - | unreachable |")

	clean := tui.ReportMarkdown("demo", &domain.ValidationReport{Valid: true})
	assert.Contains(t, clean, "# demo: valid")
	assert.NotContains(t, clean, "| Severity")
}

func TestScoreMarkdown(t *testing.T) {
	md := tui.ScoreMarkdown(domain.Score{Total: 30, Breakdown: []domain.ScoreEntry{{QuestionID: "size", Title: "Size", Score: 30}}})
	assert.Contains(t, md, "# Lead score: 30")
	assert.Contains(t, md, "| size | Size | 30 |")

	assert.Contains(t, tui.ScoreMarkdown(domain.Score{}), "No scoring answers.")
}

func TestDecisionMarkdown(t *testing.T) {
	qualified := true
	flow := &domain.Flow{
		Questions: []domain.Question{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}},
		Endings:   []domain.Ending{{ID: "vip", Title: "VIP", MarkAsQualified: &qualified}},
	}

	tests := []struct {
		name string
		d    domain.Decision
		want string
	}{
		{"Advance", domain.Decision{Action: domain.NavAdvance, NextIndex: 1, RuleIndex: -1}, "Next question **b** (index 1): B"},
		{"Ending", domain.Decision{Action: domain.NavSubmit, EndingID: "vip", RuleIndex: 0}, "Ending **vip** (qualified): VIP"},
		{"Submit", domain.Decision{Action: domain.NavSubmit, RuleIndex: -1}, "Flow submitted."},
		{"Disqualify", domain.Decision{Action: domain.NavDisqualify, Message: "No", RuleIndex: 2}, "> No"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := tui.DecisionMarkdown(flow, tt.d)
			assert.Contains(t, md, tt.want)
			assert.Equal(t, tt.d.RuleIndex >= 0, strings.Contains(md, "fired"))
		})
	}
}

func TestRendererAndBanner_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))

	out, err := tui.NewRenderer(&buf)("# title")
	assert.NoError(t, err)
	assert.Equal(t, "# title", out, "pipes get plain markdown")

	tui.PrintBanner(&buf)
	assert.NotContains(t, buf.String(), "\x1b[", "no escape codes off a terminal")
	assert.Equal(t, "ok", tui.Status(&buf, true, "ok"))
}
