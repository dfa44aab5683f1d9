package dsl

import "github.com/hificopy/formflow/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
// Question, Ending and Build delegate to the Builder so chains read top to bottom.
type QuestionBuilder struct {
	builder *Builder
	index   int
}

func (q *QuestionBuilder) q() *domain.Question {
	return &q.builder.flow.Questions[q.index]
}

// Question starts the next question.
func (q *QuestionBuilder) Question(id string, typ domain.QuestionType, title string) *QuestionBuilder {
	return q.builder.Question(id, typ, title)
}

// Ending starts an ending.
func (q *QuestionBuilder) Ending(id, title string) *EndingBuilder {
	return q.builder.Ending(id, title)
}

// Build finishes the flow.
func (q *QuestionBuilder) Build() (*domain.Flow, error) {
	return q.builder.Build()
}

// MustBuild finishes the flow and panics on validation errors.
func (q *QuestionBuilder) MustBuild() *domain.Flow {
	return q.builder.MustBuild()
}

// Description sets the helper text shown under the title.
func (q *QuestionBuilder) Description(text string) *QuestionBuilder {
	q.q().Description = text
	return q
}

// Required marks the question as mandatory.
func (q *QuestionBuilder) Required() *QuestionBuilder {
	q.q().Required = true
	return q
}

// Options sets the choices of a choice question.
func (q *QuestionBuilder) Options(options ...string) *QuestionBuilder {
	q.q().Options = options
	return q
}

// Setting adds a per-type setting.
func (q *QuestionBuilder) Setting(key string, value any) *QuestionBuilder {
	qq := q.q()
	if qq.Settings == nil {
		qq.Settings = make(map[string]any)
	}
	qq.Settings[key] = value
	return q
}

// Score assigns lead-scoring points to an option (or "rating-<n>" key) and
// enables scoring for the question.
func (q *QuestionBuilder) Score(key string, points int) *QuestionBuilder {
	qq := q.q()
	if qq.LeadScoring == nil {
		qq.LeadScoring = make(map[string]int)
	}
	qq.LeadScoring[key] = points
	qq.LeadScoringEnabled = true
	return q
}

// DisqualifyMessage sets the copy shown when one of this question's rules disqualifies.
func (q *QuestionBuilder) DisqualifyMessage(msg string) *QuestionBuilder {
	q.q().DisqualificationMessage = msg
	return q
}

// ThankYou makes the question terminal with a custom screen.
func (q *QuestionBuilder) ThankYou(title, message string) *QuestionBuilder {
	qq := q.q()
	qq.ShowThankYou = true
	qq.ThankYouTitle = title
	qq.ThankYouMessage = message
	return q
}

// If starts a rule on this question's own answer.
func (q *QuestionBuilder) If(op domain.Operator, value any) *RuleBuilder {
	return q.When("", op, value)
}

// When starts a rule on the answer to field.
func (q *QuestionBuilder) When(field string, op domain.Operator, value any) *RuleBuilder {
	return &RuleBuilder{
		question:  q,
		condition: domain.Condition{Field: field, Operator: op, Value: value},
	}
}

// RuleBuilder completes a rule with its action.
type RuleBuilder struct {
	question  *QuestionBuilder
	condition domain.Condition
}

// Jump redirects to target when the condition holds.
func (r *RuleBuilder) Jump(target string) *QuestionBuilder {
	return r.add(domain.Rule{Action: domain.ActionJump, ThenGoTo: target})
}

// Submit ends the flow when the condition holds.
func (r *RuleBuilder) Submit() *QuestionBuilder {
	return r.add(domain.Rule{Action: domain.ActionSubmit})
}

// Disqualify ends the flow with a disqualification when the condition holds.
func (r *RuleBuilder) Disqualify(message string) *QuestionBuilder {
	return r.add(domain.Rule{Action: domain.ActionDisqualify, Message: message})
}

func (r *RuleBuilder) add(rule domain.Rule) *QuestionBuilder {
	rule.Condition = r.condition
	qq := r.question.q()
	qq.ConditionalLogic = append(qq.ConditionalLogic, rule)
	return r.question
}
