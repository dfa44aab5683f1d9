package formflow_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hificopy/formflow"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		done     bool
		status   domain.NavAction
	}{
		{
			name:     "qualified path with retry",
			input:    "3\n2500\nbad\nana@acme.io\n",
			contains: []string{"## Team size", "3. 50+", "! not a valid email address", "See you soon"},
			done:     true,
			status:   domain.NavSubmit,
		},
		{
			name:     "disqualified",
			input:    "1-10\n",
			contains: []string{"Too small"},
			done:     true,
			status:   domain.NavDisqualify,
		},
		{
			name:     "exit",
			input:    "2\nexit\n",
			contains: []string{"Bye!"},
		},
		{
			name:     "back re-asks",
			input:    "2\nback\n50+\n",
			contains: []string{"## Monthly budget"},
		},
		{
			name:  "eof without newline",
			input: "2\n10\nnothing else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			sess := formflow.New().NewSession(leadFlow())
			r := &formflow.Runner{Input: strings.NewReader(tt.input), Output: &out}

			require.NoError(t, r.Run(context.Background(), sess))
			for _, c := range tt.contains {
				assert.Contains(t, out.String(), c)
			}
			assert.Equal(t, tt.done, sess.Done())
			if tt.done {
				assert.Equal(t, tt.status, sess.Decision().Action)
			}
		})
	}
}

func TestRunner_ServerDisqualifiedSession(t *testing.T) {
	ctx := context.Background()
	sess := formflow.New().NewSession(leadFlow(), formflow.WithAutoSave(&recordingSink{disqualify: "Blocked domain"}))
	_, err := sess.Answer(ctx, "50+")
	require.NoError(t, err)
	require.NoError(t, sess.Flush(ctx))

	var out bytes.Buffer
	r := &formflow.Runner{Input: strings.NewReader("5000\n"), Output: &out, Headless: true}
	require.NoError(t, r.Run(ctx, sess))

	assert.Contains(t, out.String(), "Blocked domain")
	assert.NotContains(t, out.String(), "## Monthly budget")
	assert.NotContains(t, sess.Answers(), "budget")
}

func TestRunner_Renderer(t *testing.T) {
	var out bytes.Buffer
	r := &formflow.Runner{
		Input:    strings.NewReader("1-10\n"),
		Output:   &out,
		Headless: true,
		Renderer: func(md string) (string, error) { return strings.ToUpper(md), nil },
	}
	require.NoError(t, r.Run(context.Background(), formflow.New().NewSession(leadFlow())))
	assert.Contains(t, out.String(), "## TEAM SIZE")
	assert.NotContains(t, out.String(), "> ")
	assert.NotContains(t, out.String(), "--- ")
}

func TestRunner_RequiresIO(t *testing.T) {
	sess := formflow.New().NewSession(leadFlow())
	assert.Error(t, (&formflow.Runner{Output: &bytes.Buffer{}}).Run(context.Background(), sess))
	assert.Error(t, (&formflow.Runner{Input: strings.NewReader("")}).Run(context.Background(), sess))
}

func TestParseAnswer(t *testing.T) {
	flow := leadFlow()
	multi := &domain.Question{ID: "tools", Type: domain.QuestionMultiChoice, Options: []string{"a", "b"}}

	assert.Nil(t, formflow.ParseAnswer(flow.Question("notes"), "  "))
	assert.Equal(t, "50+", formflow.ParseAnswer(flow.Question("size"), "3"))
	assert.Equal(t, "1-10", formflow.ParseAnswer(flow.Question("size"), "1-10"))
	assert.Equal(t, 12.5, formflow.ParseAnswer(flow.Question("budget"), "12.5"))
	assert.Equal(t, "lots", formflow.ParseAnswer(flow.Question("budget"), "lots"))
	assert.Equal(t, []any{"a", "b"}, formflow.ParseAnswer(multi, "a, b,"))
}
