/*
Package formflow is a qualification flow engine for CRM lead capture forms.

A flow is an ordered list of questions plus terminal endings. Each question may
carry conditional rules that jump, submit or disqualify, and choice questions
may contribute to a lead score. The same engine drives the visual builder
(validation and graph derivation), the respondent runtime (navigation and
auto-save) and the server-side qualifier, so the three can never disagree.

# Usage

Build a flow with the dsl package, or load one from JSON/YAML, and walk a
respondent through it:

	flow := dsl.New("demo").
		Question("size", domain.QuestionSingleChoice, "Team size").
		Options("1-10", "11-50").
		If(domain.OpEquals, "1-10").Disqualify("Too small").
		Question("email", domain.QuestionEmail, "Work email").Required().
		MustBuild()

	eng := formflow.New()
	if report := eng.Validate(ctx, flow); !report.Valid {
		log.Fatal(report.Errors)
	}

	sess := eng.NewSession(flow, formflow.WithAutoSave(formhttp.NewClient(baseURL)))
	decision, err := sess.Answer(ctx, "11-50")

Answers saved through WithAutoSave are retried with backoff in the background
and a disqualification reported by the server ends the session on the next
answer.
*/
package formflow
