package runtime

import (
	"context"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/rules"
)

// Resolve computes the next position for the question at current.
// Rules are taken in declaration order and the first one whose condition
// holds decides the outcome. Resolve never panics: malformed rules do not
// fire and a jump to a missing target degrades to advance.
func (e *Engine) Resolve(ctx context.Context, current int, questions []domain.Question, answers domain.Answers) domain.Decision {
	return e.resolve(ctx, current, questions, nil, answers)
}

// ResolveFlow is Resolve with the flow endings in scope, so a jump whose
// target is an Ending id resolves to submit carrying that ending.
func (e *Engine) ResolveFlow(ctx context.Context, current int, flow *domain.Flow, answers domain.Answers) domain.Decision {
	if flow == nil {
		return domain.Decision{Action: domain.NavSubmit, RuleIndex: -1}
	}
	return e.resolve(ctx, current, flow.Questions, flow.Endings, answers)
}

func (e *Engine) resolve(ctx context.Context, current int, questions []domain.Question, endings []domain.Ending, answers domain.Answers) domain.Decision {
	if current < 0 {
		if len(questions) == 0 {
			return domain.Decision{Action: domain.NavSubmit, RuleIndex: -1}
		}
		return domain.Decision{Action: domain.NavAdvance, NextIndex: 0, RuleIndex: -1}
	}
	if current >= len(questions) {
		return domain.Decision{Action: domain.NavSubmit, RuleIndex: -1}
	}

	d := e.decide(current, questions, endings, answers)
	e.emitDecision(ctx, questions[current].ID, d)
	return d
}

// decide is resolve without the decision hook; current must be in range.
func (e *Engine) decide(current int, questions []domain.Question, endings []domain.Ending, answers domain.Answers) domain.Decision {
	return e.resolveRules(current, &questions[current], questions, endings, answers)
}

func (e *Engine) resolveRules(current int, q *domain.Question, questions []domain.Question, endings []domain.Ending, answers domain.Answers) domain.Decision {
	for i, rule := range q.ConditionalLogic {
		ok, err := rules.CheckCondition(rule.Condition, q.ID, answers)
		if err != nil {
			e.logger.Debug("rule failed closed",
				"question_id", q.ID,
				"rule_index", i,
				"operator", rule.Condition.Operator,
				"err", err,
			)
			continue
		}
		if !ok {
			continue
		}

		switch rule.Action {
		case domain.ActionSubmit:
			return domain.Decision{Action: domain.NavSubmit, RuleIndex: i}
		case domain.ActionDisqualify:
			return domain.Decision{
				Action:    domain.NavDisqualify,
				Message:   e.disqualifyMessageFor(q, rule),
				RuleIndex: i,
			}
		case domain.ActionJump:
			return e.resolveJump(current, q, rule, i, questions, endings)
		default:
			e.logger.Warn("rule has unknown action, skipping",
				"question_id", q.ID,
				"rule_index", i,
				"action", rule.Action,
			)
		}
	}
	return e.advance(current, q, questions)
}

func (e *Engine) resolveJump(current int, q *domain.Question, rule domain.Rule, ruleIndex int, questions []domain.Question, endings []domain.Ending) domain.Decision {
	if rule.ThenGoTo == "" {
		d := e.advance(current, q, questions)
		d.RuleIndex = ruleIndex
		return d
	}
	if idx := domain.IndexOf(questions, rule.ThenGoTo); idx >= 0 {
		return domain.Decision{Action: domain.NavJump, NextIndex: idx, RuleIndex: ruleIndex}
	}
	if domain.FindEnding(endings, rule.ThenGoTo) != nil {
		return domain.Decision{Action: domain.NavSubmit, EndingID: rule.ThenGoTo, RuleIndex: ruleIndex}
	}

	e.logger.Warn("jump target missing, advancing",
		"question_id", q.ID,
		"rule_index", ruleIndex,
		"target", rule.ThenGoTo,
	)
	d := e.advance(current, q, questions)
	d.RuleIndex = ruleIndex
	return d
}

func (e *Engine) advance(current int, q *domain.Question, questions []domain.Question) domain.Decision {
	if q.Terminal() || current >= len(questions)-1 {
		return domain.Decision{Action: domain.NavSubmit, RuleIndex: -1}
	}
	return domain.Decision{Action: domain.NavAdvance, NextIndex: current + 1, RuleIndex: -1}
}

func (e *Engine) disqualifyMessageFor(q *domain.Question, rule domain.Rule) string {
	if rule.Message != "" {
		return rule.Message
	}
	if q.DisqualificationMessage != "" {
		return q.DisqualificationMessage
	}
	return e.disqualifyMessage
}
