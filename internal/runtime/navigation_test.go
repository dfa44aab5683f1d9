package runtime_test

import (
	"context"
	"testing"

	"github.com/hificopy/formflow/internal/runtime"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func rule(field string, op domain.Operator, value any, action domain.RuleAction, target string) domain.Rule {
	return domain.Rule{
		Condition: domain.Condition{Field: field, Operator: op, Value: value},
		Action:    action,
		ThenGoTo:  target,
	}
}

func threeQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Type: domain.QuestionSingleChoice, Title: "Company size", Options: []string{"A", "B"}},
		{ID: "q2", Type: domain.QuestionShortText, Title: "Role"},
		{ID: "q3", Type: domain.QuestionEmail, Title: "Email"},
	}
}

func TestResolve_EmptyLogicAdvances(t *testing.T) {
	qs := threeQuestions()

	for i := 0; i < len(qs)-1; i++ {
		d := runtime.Resolve(i, qs, domain.Answers{})
		assert.Equal(t, domain.NavAdvance, d.Action)
		assert.Equal(t, i+1, d.NextIndex)
		assert.Equal(t, -1, d.RuleIndex)
	}

	last := runtime.Resolve(len(qs)-1, qs, domain.Answers{})
	assert.Equal(t, domain.NavSubmit, last.Action)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	qs := threeQuestions()
	qs[0].ConditionalLogic = []domain.Rule{
		rule("q1", domain.OpEquals, "A", domain.ActionJump, "q3"),
		rule("q1", domain.OpEquals, "A", domain.ActionDisqualify, ""),
	}

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})

	assert.Equal(t, domain.NavJump, d.Action)
	assert.Equal(t, 2, d.NextIndex)
	assert.Equal(t, 0, d.RuleIndex)
}

func TestResolve_DisqualifyShortCircuits(t *testing.T) {
	qs := threeQuestions()
	qs[0].DisqualificationMessage = "Too small"
	qs[0].ConditionalLogic = []domain.Rule{
		rule("q1", domain.OpEquals, "B", domain.ActionJump, "q3"),
		rule("q1", domain.OpEquals, "A", domain.ActionDisqualify, ""),
		rule("q1", domain.OpEquals, "A", domain.ActionJump, "q3"),
		rule("q1", domain.OpIsNotEmpty, nil, domain.ActionSubmit, ""),
	}

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})

	assert.Equal(t, domain.NavDisqualify, d.Action)
	assert.Equal(t, "Too small", d.Message)
	assert.Equal(t, 1, d.RuleIndex)
}

func TestResolve_DisqualifyMessagePrecedence(t *testing.T) {
	qs := threeQuestions()
	r := rule("", domain.OpEquals, "A", domain.ActionDisqualify, "")
	r.Message = "Rule copy"
	qs[0].DisqualificationMessage = "Question copy"
	qs[0].ConditionalLogic = []domain.Rule{r}

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})
	assert.Equal(t, "Rule copy", d.Message)

	qs[0].ConditionalLogic[0].Message = ""
	qs[0].DisqualificationMessage = ""
	d = runtime.Resolve(0, qs, domain.Answers{"q1": "A"})
	assert.Equal(t, runtime.DefaultDisqualifyMessage, d.Message)

	eng := runtime.NewEngine(runtime.WithDisqualifyMessage("Not a fit"))
	d = eng.Resolve(context.Background(), 0, qs, domain.Answers{"q1": "A"})
	assert.Equal(t, "Not a fit", d.Message)
}

func TestResolve_SubmitRule(t *testing.T) {
	qs := threeQuestions()
	qs[0].ConditionalLogic = []domain.Rule{rule("q1", domain.OpEquals, "B", domain.ActionSubmit, "")}

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "B"})

	assert.Equal(t, domain.NavSubmit, d.Action)
}

func TestResolve_JumpWithoutTargetAdvances(t *testing.T) {
	qs := threeQuestions()
	qs[0].ConditionalLogic = []domain.Rule{rule("q1", domain.OpEquals, "A", domain.ActionJump, "")}

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})

	assert.Equal(t, domain.NavAdvance, d.Action)
	assert.Equal(t, 1, d.NextIndex)
	assert.Equal(t, 0, d.RuleIndex)
}

func TestResolve_DeletedJumpTargetAdvances(t *testing.T) {
	qs := threeQuestions()
	qs[0].ConditionalLogic = []domain.Rule{rule("q1", domain.OpEquals, "A", domain.ActionJump, "q3")}
	// q3 is deleted after the rule was authored.
	qs = qs[:2]

	assert.NotPanics(t, func() {
		d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})
		assert.Equal(t, domain.NavAdvance, d.Action)
		assert.Equal(t, 1, d.NextIndex)
	})
}

func TestResolve_MalformedRulesNeverFire(t *testing.T) {
	qs := threeQuestions()
	qs[0].ConditionalLogic = []domain.Rule{
		rule("q1", domain.Operator("regex"), ".*", domain.ActionDisqualify, ""),
		rule("q1", domain.OpGreaterThan, 10, domain.ActionDisqualify, ""),
		rule("q1", domain.OpEquals, "A", domain.RuleAction("explode"), ""),
	}

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})

	assert.Equal(t, domain.NavAdvance, d.Action)
	assert.Equal(t, -1, d.RuleIndex)
}

func TestResolve_OutOfRange(t *testing.T) {
	qs := threeQuestions()

	assert.Equal(t, domain.Decision{Action: domain.NavAdvance, NextIndex: 0, RuleIndex: -1}, runtime.Resolve(-3, qs, nil))
	assert.Equal(t, domain.NavSubmit, runtime.Resolve(3, qs, nil).Action)
	assert.Equal(t, domain.NavSubmit, runtime.Resolve(0, nil, nil).Action)
	assert.Equal(t, domain.NavSubmit, runtime.Resolve(-1, nil, nil).Action)
}

func TestResolve_TerminalQuestionSubmits(t *testing.T) {
	qs := threeQuestions()
	qs[0].ShowThankYou = true

	d := runtime.Resolve(0, qs, domain.Answers{"q1": "A"})

	assert.Equal(t, domain.NavSubmit, d.Action)
}

func TestResolveFlow_JumpToEnding(t *testing.T) {
	qualified := true
	flow := &domain.Flow{
		Questions: threeQuestions(),
		Endings:   []domain.Ending{{ID: "end-good", Title: "Booked", MarkAsQualified: &qualified}},
	}
	flow.Questions[0].ConditionalLogic = []domain.Rule{rule("q1", domain.OpEquals, "A", domain.ActionJump, "end-good")}

	eng := runtime.NewEngine()
	d := eng.ResolveFlow(context.Background(), 0, flow, domain.Answers{"q1": "A"})
	assert.Equal(t, domain.NavSubmit, d.Action)
	assert.Equal(t, "end-good", d.EndingID)

	// Without the endings in scope the same rule degrades to advance.
	d = eng.Resolve(context.Background(), 0, flow.Questions, domain.Answers{"q1": "A"})
	assert.Equal(t, domain.NavAdvance, d.Action)
}

func TestResolve_EmitsDecisionHook(t *testing.T) {
	var got []*domain.DecisionEvent
	eng := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnDecision: func(_ context.Context, ev *domain.DecisionEvent) { got = append(got, ev) },
	}))

	eng.Resolve(context.Background(), 0, threeQuestions(), nil)

	if assert.Len(t, got, 1) {
		assert.Equal(t, "q1", got[0].QuestionID)
		assert.Equal(t, domain.NavAdvance, got[0].Decision.Action)
	}
}
