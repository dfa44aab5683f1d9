package validator

import (
	"fmt"
	"sort"

	"github.com/hificopy/formflow/pkg/domain"
)

// Validate checks the structural soundness of a flow before it is trusted at runtime.
//
// Identity problems (empty, duplicate or reserved ids), dangling references and
// self-loops are hard errors. Unreachable questions, unknown scoring keys and
// rules the evaluator will never fire are warnings: the resolver tolerates them.
func Validate(questions []domain.Question, endings []domain.Ending) *domain.ValidationReport {
	report := &domain.ValidationReport{Valid: true, Errors: []domain.Issue{}, Warnings: []domain.Issue{}}

	ids := checkIdentity(report, questions, endings)
	checkReferences(report, questions, ids)
	checkSelfLoops(report, questions)
	checkReachability(report, questions)
	checkScoring(report, questions)
	checkVocabulary(report, questions)

	return report
}

func checkIdentity(report *domain.ValidationReport, questions []domain.Question, endings []domain.Ending) map[string]bool {
	ids := make(map[string]bool, len(questions)+len(endings))
	visit := func(id, kind string, index int) {
		switch {
		case id == "":
			report.Add(domain.Issue{
				Severity:  domain.SeverityError,
				Code:      domain.IssueEmptyID,
				RuleIndex: -1,
				Message:   fmt.Sprintf("%s at position %d has no id", kind, index),
			})
			return
		case id == domain.StartNodeID:
			report.Add(domain.Issue{
				Severity:   domain.SeverityError,
				Code:       domain.IssueReservedID,
				QuestionID: id,
				RuleIndex:  -1,
				Message:    fmt.Sprintf("%s id %q is reserved for the start node", kind, id),
			})
		case ids[id]:
			report.Add(domain.Issue{
				Severity:   domain.SeverityError,
				Code:       domain.IssueDuplicateID,
				QuestionID: id,
				RuleIndex:  -1,
				Message:    fmt.Sprintf("%s id %q is already used", kind, id),
			})
		}
		ids[id] = true
	}

	for i := range questions {
		visit(questions[i].ID, "question", i)
	}
	for i := range endings {
		visit(endings[i].ID, "ending", i)
	}
	return ids
}

// (a) every thenGoTo and condition field resolves to a question or ending.
func checkReferences(report *domain.ValidationReport, questions []domain.Question, ids map[string]bool) {
	for _, q := range questions {
		for i, r := range q.ConditionalLogic {
			if f := r.Condition.Field; f != "" && !ids[f] {
				report.Add(domain.Issue{
					Severity:   domain.SeverityError,
					Code:       domain.IssueDanglingField,
					QuestionID: q.ID,
					RuleIndex:  i,
					Ref:        f,
					Message:    fmt.Sprintf("rule %d of %q reads unknown field %q", i, q.ID, f),
				})
			}
			if t := r.ThenGoTo; t != "" && !ids[t] {
				report.Add(domain.Issue{
					Severity:   domain.SeverityError,
					Code:       domain.IssueDanglingTarget,
					QuestionID: q.ID,
					RuleIndex:  i,
					Ref:        t,
					Message:    fmt.Sprintf("rule %d of %q jumps to unknown node %q", i, q.ID, t),
				})
			}
		}
	}
}

// (b) no question is its own direct jump target.
func checkSelfLoops(report *domain.ValidationReport, questions []domain.Question) {
	for _, q := range questions {
		for i, r := range q.ConditionalLogic {
			if r.ThenGoTo != "" && r.ThenGoTo == q.ID {
				report.Add(domain.Issue{
					Severity:   domain.SeverityError,
					Code:       domain.IssueSelfLoop,
					QuestionID: q.ID,
					RuleIndex:  i,
					Ref:        q.ID,
					Message:    fmt.Sprintf("rule %d of %q jumps to itself", i, q.ID),
				})
			}
		}
	}
}

// (c) every question is reachable from the synthetic start.
// Paths are linear fallthrough (except out of terminal questions) plus jump targets.
func checkReachability(report *domain.ValidationReport, questions []domain.Question) {
	if len(questions) == 0 {
		return
	}

	visited := make([]bool, len(questions))
	queue := []int{0}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		q := &questions[current]
		if !q.Terminal() && current+1 < len(questions) {
			queue = append(queue, current+1)
		}
		for _, r := range q.ConditionalLogic {
			if r.Action != domain.ActionJump || r.ThenGoTo == "" {
				continue
			}
			if idx := domain.IndexOf(questions, r.ThenGoTo); idx >= 0 && !visited[idx] {
				queue = append(queue, idx)
			}
		}
	}

	for i, ok := range visited {
		if ok {
			continue
		}
		report.Add(domain.Issue{
			Severity:   domain.SeverityWarning,
			Code:       domain.IssueUnreachable,
			QuestionID: questions[i].ID,
			RuleIndex:  -1,
			Message:    fmt.Sprintf("question %q is not reachable from start", questions[i].ID),
		})
	}
}

// (d) scoring keys of choice questions are contained in the options.
func checkScoring(report *domain.ValidationReport, questions []domain.Question) {
	for _, q := range questions {
		for _, key := range unknownScoreKeys(&q) {
			report.Add(domain.Issue{
				Severity:   domain.SeverityWarning,
				Code:       domain.IssueUnknownScoreKey,
				QuestionID: q.ID,
				RuleIndex:  -1,
				Ref:        key,
				Message:    fmt.Sprintf("scoring key %q of %q is not an option and will be dropped", key, q.ID),
			})
		}
	}
}

func checkVocabulary(report *domain.ValidationReport, questions []domain.Question) {
	for _, q := range questions {
		if !q.Type.Known() {
			report.Add(domain.Issue{
				Severity:   domain.SeverityWarning,
				Code:       domain.IssueUnknownType,
				QuestionID: q.ID,
				RuleIndex:  -1,
				Ref:        string(q.Type),
				Message:    fmt.Sprintf("question %q has unknown type %q", q.ID, q.Type),
			})
		}
		for i, r := range q.ConditionalLogic {
			if !r.Condition.Operator.Known() {
				report.Add(domain.Issue{
					Severity:   domain.SeverityWarning,
					Code:       domain.IssueUnknownOperator,
					QuestionID: q.ID,
					RuleIndex:  i,
					Ref:        string(r.Condition.Operator),
					Message:    fmt.Sprintf("rule %d of %q uses unknown operator %q and will never fire", i, q.ID, r.Condition.Operator),
				})
			}
			if !r.Action.Known() {
				report.Add(domain.Issue{
					Severity:   domain.SeverityWarning,
					Code:       domain.IssueUnknownAction,
					QuestionID: q.ID,
					RuleIndex:  i,
					Ref:        string(r.Action),
					Message:    fmt.Sprintf("rule %d of %q uses unknown action %q and will never fire", i, q.ID, r.Action),
				})
			}
		}
	}
}

func unknownScoreKeys(q *domain.Question) []string {
	if !q.Type.IsChoice() || len(q.LeadScoring) == 0 {
		return nil
	}
	var keys []string
	for key := range q.LeadScoring {
		if !q.HasOption(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// PruneScoring returns copies of the questions with unknown scoring keys dropped.
// The input is not modified.
func PruneScoring(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
		for _, key := range unknownScoreKeys(&out[i]) {
			delete(out[i].LeadScoring, key)
		}
	}
	return out
}
