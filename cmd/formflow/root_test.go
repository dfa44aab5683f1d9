package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFlow = `{
  "id": "cli",
  "questions": [
    {"id": "size", "type": "single-choice", "title": "Team size",
     "options": ["small", "large"],
     "lead_scoring_enabled": true, "lead_scoring": {"large": 15},
     "conditional_logic": [{"condition": {"operator": "equals", "value": "small"}, "action": "disqualify", "message": "Too small"}]},
    {"id": "email", "type": "email", "title": "Email"}
  ]
}`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeFlow(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(testFlow), 0o644))
	return path
}

func TestGraphCommand(t *testing.T) {
	path := writeFlow(t)

	out := execute(t, "graph", path, "--format", "mermaid")
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "size")

	out = execute(t, "graph", path, "--format", "json", "--rules")
	var g domain.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.NotEmpty(t, g.Nodes)
}

func TestResolveAndScoreCommands(t *testing.T) {
	path := writeFlow(t)

	out := execute(t, "resolve", path, "--answers", `{"size": "small"}`, "--json")
	var d domain.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, domain.NavDisqualify, d.Action)
	assert.Equal(t, "Too small", d.Message)

	out = execute(t, "score", path, "--answers", "size: large", "--json")
	var s domain.Score
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 15, s.Total)
}

func TestValidateCommand_JSON(t *testing.T) {
	path := writeFlow(t)

	out := execute(t, "validate", path, "--json")
	var reports map[string]domain.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	assert.True(t, reports["cli"].Valid)
}

func TestDecodeAnswers(t *testing.T) {
	values := domain.Answers{}
	require.NoError(t, decodeAnswers([]byte(`{"a": 1, "b": ["x", "y"]}`), &values))
	assert.Equal(t, 1, values["a"])
	assert.Equal(t, []any{"x", "y"}, values["b"])
}
