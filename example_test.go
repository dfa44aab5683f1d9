package formflow_test

import (
	"context"
	"fmt"

	"github.com/hificopy/formflow"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/dsl"
)

func Example() {
	flow := dsl.New("demo").
		Question("size", domain.QuestionSingleChoice, "Team size").
		Options("1-10", "11-50").
		Score("11-50", 10).
		If(domain.OpEquals, "1-10").Disqualify("Too small").
		Question("email", domain.QuestionEmail, "Work email").
		MustBuild()

	ctx := context.Background()
	eng := formflow.New()
	fmt.Println("valid:", eng.Validate(ctx, flow).Valid)

	sess := eng.NewSession(flow)
	d, _ := sess.Answer(ctx, "11-50")
	fmt.Println(d.Action, sess.Current().ID)

	d, _ = sess.Answer(ctx, "ana@acme.io")
	fmt.Println(d.Action, sess.Score(ctx).Total)

	// Output:
	// valid: true
	// advance email
	// submit 10
}
