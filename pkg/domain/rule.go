package domain

// Operator compares a collected answer against a rule value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

// Known reports whether op is one of the supported operators.
func (op Operator) Known() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// RuleAction is what happens when a rule's condition holds.
type RuleAction string

const (
	ActionJump       RuleAction = "jump"
	ActionSubmit     RuleAction = "submit"
	ActionDisqualify RuleAction = "disqualify"
)

// Known reports whether a is one of the supported rule actions.
func (a RuleAction) Known() bool {
	return a == ActionJump || a == ActionSubmit || a == ActionDisqualify
}

// Condition is the predicate half of a rule.
// An empty Field refers to the question that owns the rule.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Rule is an authored branching rule attached to a question.
// Rules are evaluated in declaration order and the first match wins.
type Rule struct {
	ID        string     `json:"id,omitempty"`
	Condition Condition  `json:"condition"`
	Action    RuleAction `json:"action"`
	// ThenGoTo is the jump target. Empty means "advance to the next question".
	ThenGoTo string `json:"thenGoTo,omitempty"`
	// Message is the human readable disqualification text.
	Message string `json:"message,omitempty"`
}
