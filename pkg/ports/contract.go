package ports

import (
	"context"
	"testing"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractFlow(id string) *domain.Flow {
	qualified := true
	return &domain.Flow{
		ID:   id,
		Name: "Contract flow",
		Kind: domain.FlowKindQualification,
		Questions: []domain.Question{
			{
				ID: "size", Type: domain.QuestionSingleChoice, Title: "Team size",
				Options:            []string{"small", "large"},
				LeadScoringEnabled: true,
				LeadScoring:        map[string]int{"large": 10},
				ConditionalLogic: []domain.Rule{{
					ID:        "r1",
					Condition: domain.Condition{Field: "size", Operator: domain.OpEquals, Value: "small"},
					Action:    domain.ActionDisqualify,
					Message:   "Too small",
				}},
			},
			{ID: "email", Type: domain.QuestionEmail, Title: "Email", Required: true},
		},
		Endings: []domain.Ending{{ID: "booked", Title: "Booked", MarkAsQualified: &qualified}},
		Layout: domain.Layout{
			Positions: map[string]domain.Position{"size": {X: 1, Y: 2}},
			Edges:     []domain.Edge{{ID: domain.EdgeID("size", "email"), Source: "size", Target: "email"}},
		},
		Version: 1,
	}
}

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore implementation
// adheres to the defined interface contract.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()
	formID := "contract-form-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		flow := contractFlow(formID)
		require.NoError(t, store.Save(ctx, flow), "Save should not return error")

		loaded, err := store.Load(ctx, formID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, flow.ID, loaded.ID)
		assert.Equal(t, flow.Kind, loaded.Kind)
		require.Len(t, loaded.Questions, 2)
		assert.Equal(t, "size", loaded.Questions[0].ID)
		assert.Equal(t, 10, loaded.Questions[0].LeadScoring["large"])
		require.Len(t, loaded.Questions[0].ConditionalLogic, 1)
		assert.Equal(t, "small", loaded.Questions[0].ConditionalLogic[0].Condition.Value)
		require.NotNil(t, loaded.Endings[0].MarkAsQualified)
		assert.True(t, *loaded.Endings[0].MarkAsQualified)
		assert.Equal(t, flow.Layout.Edges, loaded.Layout.Edges)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, formID)
		require.NoError(t, err)
		loaded.Questions[0].Title = "mutated"

		again, err := store.Load(ctx, formID)
		require.NoError(t, err)
		assert.Equal(t, "Team size", again.Questions[0].Title)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+formID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id2 := formID + "-2"
		require.NoError(t, store.Save(ctx, contractFlow(id2)))
		defer func() { _ = store.Delete(ctx, id2) }()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, formID)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, formID), "Delete should not return error")

		_, err := store.Load(ctx, formID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, formID)

		assert.NoError(t, store.Delete(ctx, formID), "Delete is idempotent")
	})
}

// RunProgressStoreContract runs the ProgressStore contract suite.
func RunProgressStoreContract(t *testing.T, store ProgressStore) {
	ctx := context.Background()
	formID := "contract-form-" + time.Now().Format("20060102150405")
	sessionID := "contract-session"

	t.Run("Save and Load", func(t *testing.T) {
		p := &domain.Progress{
			FormID:      formID,
			SessionID:   sessionID,
			Answers:     domain.Answers{"size": "large", "tools": []any{"a", "b"}},
			CurrentStep: 1,
			Status:      domain.StatusInProgress,
		}
		require.NoError(t, store.Save(ctx, p))

		loaded, err := store.Load(ctx, formID, sessionID)
		require.NoError(t, err)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, 1, loaded.CurrentStep)
		assert.Equal(t, domain.StatusInProgress, loaded.Status)
		assert.Equal(t, "large", loaded.Answers["size"])
		assert.Len(t, loaded.Answers["tools"], 2)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, formID, "ghost")
		assert.ErrorIs(t, err, domain.ErrProgressNotFound)

		_, err = store.Load(ctx, formID+"-other", sessionID)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound, "sessions are scoped by form")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.Progress{FormID: formID, SessionID: "second", Answers: domain.Answers{}}))

		ids, err := store.List(ctx, formID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{sessionID, "second"}, ids)

		other, err := store.List(ctx, formID+"-other")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, formID, sessionID))
		require.NoError(t, store.Delete(ctx, formID, "second"))

		_, err := store.Load(ctx, formID, sessionID)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound)

		ids, err := store.List(ctx, formID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
