/*
Package dsl provides a fluent builder for constructing flows in Go code.

It is useful for tests, seed data and hosts that generate flows instead of
loading JSON or YAML documents. Questions keep the order they are added in.

Example usage:

	flow, err := dsl.New("demo-call").
		Qualification().
		Question("size", domain.QuestionSingleChoice, "How big is your team?").
		Options("1-10", "11-50", "50+").
		Score("11-50", 10).Score("50+", 20).
		If(domain.OpEquals, "1-10").Disqualify("We work with teams of 10+").
		Question("email", domain.QuestionEmail, "Work email").
		Required().
		Setting("validation", "business-email").
		Ending("booked", "Pick a slot").Qualified(true).
		Build()

Build validates the result and returns a *domain.InvalidFlowError when the
flow has hard structural errors.
*/
package dsl
