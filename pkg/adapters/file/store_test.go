package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hificopy/formflow/pkg/adapters/file"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowStore_Contract(t *testing.T) {
	ports.RunFlowStoreContract(t, file.NewFlowStore(t.TempDir()))
}

func TestProgressStore_Contract(t *testing.T) {
	ports.RunProgressStoreContract(t, file.NewProgressStore(t.TempDir()))
}

const yamlFlow = `
name: Demo
kind: qualification
questions:
  - id: size
    type: single-choice
    title: Team size
    options: [small, large]
    lead_scoring_enabled: true
    lead_scoring:
      large: 10
    conditional_logic:
      - condition: {operator: equals, value: small}
        action: disqualify
        message: Too small
  - id: email
    type: email
    title: Work email
    required: true
endings:
  - id: booked
    title: Pick a slot
    mark_as_qualified: true
`

func TestLoadFlow_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlFlow), 0644))

	flow, err := file.LoadFlow(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", flow.ID, "id defaults to the file name")
	assert.Equal(t, domain.FlowKindQualification, flow.Kind)
	require.Len(t, flow.Questions, 2)
	assert.Equal(t, 10, flow.Questions[0].LeadScoring["large"])
	assert.Equal(t, domain.ActionDisqualify, flow.Questions[0].ConditionalLogic[0].Action)
	assert.True(t, flow.Questions[1].Required)
	assert.Equal(t, domain.QualificationQualified, flow.Ending("booked").Disposition())
}

func TestFlowStore_ReadsYAMLAndRewritesJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.yml"), []byte(yamlFlow), 0644))
	store := file.NewFlowStore(dir)
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, ids)

	flow, err := store.Load(ctx, "demo")
	require.NoError(t, err)
	flow.Name = "Renamed"
	require.NoError(t, store.Save(ctx, flow))

	_, err = os.Stat(filepath.Join(dir, "demo.yml"))
	assert.True(t, os.IsNotExist(err))

	again, err := store.Load(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)
}

func TestFlowStore_RejectsPathIDs(t *testing.T) {
	store := file.NewFlowStore(t.TempDir())

	_, err := store.Load(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, file.ErrInvalidID)
	assert.ErrorIs(t, store.Save(context.Background(), &domain.Flow{ID: ""}), file.ErrInvalidID)
}

func TestEncodeFlow_YAMLRoundTrip(t *testing.T) {
	flow, err := file.DecodeFlow([]byte(yamlFlow), ".yaml")
	require.NoError(t, err)

	out, err := file.EncodeFlow(flow, ".yaml")
	require.NoError(t, err)

	back, err := file.DecodeFlow(out, ".yaml")
	require.NoError(t, err)
	assert.Equal(t, flow.Questions, back.Questions)
}
