package runtime

import (
	"context"

	"github.com/hificopy/formflow/pkg/domain"
)

// Qualify re-evaluates a respondent's answers server side.
// It walks the navigation path from the first question while answers exist
// and reports the first disqualification or the reached ending. Unanswered
// questions stop the walk: the respondent has not got there yet.
// The walk fires a single qualify event, not one decision per step.
func (e *Engine) Qualify(ctx context.Context, flow *domain.Flow, answers domain.Answers) domain.QualificationResult {
	result := e.qualify(flow, answers)
	e.emitQualify(ctx, flow, result)
	return result
}

func (e *Engine) qualify(flow *domain.Flow, answers domain.Answers) domain.QualificationResult {
	result := domain.QualificationResult{Qualification: domain.QualificationNeutral}
	if flow == nil {
		return result
	}
	result.Score = aggregate(flow.Questions, answers)

	visited := make(map[int]bool, len(flow.Questions))
	current := 0
	for current >= 0 && current < len(flow.Questions) {
		if visited[current] {
			// Author-built loop; stop rather than spin.
			break
		}
		visited[current] = true

		q := &flow.Questions[current]
		if _, answered := answers[q.ID]; !answered {
			break
		}

		d := e.decide(current, flow.Questions, flow.Endings, answers)
		switch d.Action {
		case domain.NavDisqualify:
			result.Disqualified = true
			result.Reason = d.Message
			result.QuestionID = q.ID
			result.Qualification = domain.QualificationDisqualified
			return result
		case domain.NavSubmit:
			if ending := flow.Ending(d.EndingID); ending != nil {
				result.EndingID = ending.ID
				result.Qualification = ending.Disposition()
				if result.Qualification == domain.QualificationDisqualified {
					result.Disqualified = true
					result.Reason = ending.Message
					result.QuestionID = q.ID
				}
			}
			return result
		default:
			current = d.NextIndex
		}
	}
	return result
}
