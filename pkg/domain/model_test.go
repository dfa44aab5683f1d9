package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndingDisposition(t *testing.T) {
	yes, no := true, false

	assert.Equal(t, QualificationNeutral, (&Ending{}).Disposition())
	assert.Equal(t, QualificationQualified, (&Ending{MarkAsQualified: &yes}).Disposition())
	assert.Equal(t, QualificationDisqualified, (&Ending{MarkAsQualified: &no}).Disposition())
}

func TestSessionStatusTransitions(t *testing.T) {
	assert.True(t, StatusNew.CanTransition(StatusInProgress))
	assert.True(t, StatusInProgress.CanTransition(StatusDisqualified))
	assert.True(t, StatusQualified.CanTransition(StatusBooked))
	assert.False(t, StatusInProgress.CanTransition(StatusBooked))
	assert.False(t, StatusDisqualified.CanTransition(StatusQualified))
	assert.False(t, StatusBooked.CanTransition(StatusInProgress))

	assert.True(t, StatusDisqualified.Suppressed())
	assert.True(t, StatusBooked.Suppressed())
	assert.False(t, StatusQualified.Suppressed())
}

func TestFlowCloneDoesNotAlias(t *testing.T) {
	f := &Flow{
		ID: "f1",
		Questions: []Question{{
			ID:          "q1",
			Options:     []string{"A"},
			LeadScoring: map[string]int{"A": 1},
			ConditionalLogic: []Rule{{
				Condition: Condition{Operator: OpEquals, Value: "A"},
				Action:    ActionSubmit,
			}},
		}},
		Layout: Layout{Positions: map[string]Position{"q1": {X: 1}}},
	}

	cp := f.Clone()
	cp.Questions[0].Options[0] = "B"
	cp.Questions[0].LeadScoring["A"] = 99
	cp.Questions[0].ConditionalLogic[0].Action = ActionJump
	cp.Layout.Positions["q1"] = Position{X: 5}

	assert.Equal(t, "A", f.Questions[0].Options[0])
	assert.Equal(t, 1, f.Questions[0].LeadScoring["A"])
	assert.Equal(t, ActionSubmit, f.Questions[0].ConditionalLogic[0].Action)
	assert.Equal(t, float64(1), f.Layout.Positions["q1"].X)
}

func TestStatusErrorRateLimited(t *testing.T) {
	assert.True(t, (&StatusError{StatusCode: 429}).RateLimited())
	assert.False(t, (&StatusError{StatusCode: 500}).RateLimited())
}

func TestDecisionJSON(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		want     string
	}{
		{
			name:     "jump to first question",
			decision: Decision{Action: NavJump, NextIndex: 0, RuleIndex: 0},
			want:     `{"action":"jump","nextIndex":0,"ruleIndex":0}`,
		},
		{
			name:     "advance",
			decision: Decision{Action: NavAdvance, NextIndex: 2, RuleIndex: -1},
			want:     `{"action":"advance","nextIndex":2,"ruleIndex":-1}`,
		},
		{
			name:     "disqualify",
			decision: Decision{Action: NavDisqualify, Message: "no", RuleIndex: 1},
			want:     `{"action":"disqualify","nextIndex":0,"message":"no","ruleIndex":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.decision)
			assert.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))

			var back Decision
			assert.NoError(t, json.Unmarshal(raw, &back))
			assert.Equal(t, tt.decision, back)
		})
	}
}
