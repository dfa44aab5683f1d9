package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnDecision(ctx, &domain.DecisionEvent{Decision: domain.Decision{Action: domain.NavJump}})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Decision: domain.Decision{Action: domain.NavJump}})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Decision: domain.Decision{Action: domain.NavDisqualify}})
	hooks.OnValidation(ctx, &domain.ValidationEvent{Errors: 2, Warnings: 1})
	hooks.OnValidation(ctx, &domain.ValidationEvent{Warnings: 3})
	hooks.OnSaveAttempt(ctx, &domain.SaveAttemptEvent{Attempt: 1, Err: errors.New("503"), Duration: time.Millisecond})
	hooks.OnSaveAttempt(ctx, &domain.SaveAttemptEvent{Attempt: 2, Duration: time.Millisecond})
	hooks.OnStatusChange(ctx, &domain.StatusEvent{From: domain.StatusInProgress, To: domain.StatusDisqualified})
	hooks.OnScore(ctx, &domain.ScoreEvent{Total: 40})
	hooks.OnQualify(ctx, &domain.QualifyEvent{Result: domain.QualificationResult{Qualification: domain.QualificationDisqualified}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("jump")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("disqualify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationIssues.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ValidationIssues.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveAttempts.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChanges.WithLabelValues("DISQUALIFIED")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Scores))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Qualifications.WithLabelValues("disqualified")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnDecision(context.Background(), &domain.DecisionEvent{Decision: domain.Decision{Action: domain.NavSubmit}})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `formflow_decisions_total{action="submit"} 1`)
}

func TestChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := observability.NewMetrics()

	var custom int
	hooks := observability.Chain(
		m.Hooks(),
		observability.LogHooks(logger),
		domain.LifecycleHooks{OnStatusChange: func(context.Context, *domain.StatusEvent) { custom++ }},
	)

	hooks.OnStatusChange(context.Background(), &domain.StatusEvent{
		SessionID: "s1", From: domain.StatusQualified, To: domain.StatusBooked,
	})

	assert.Equal(t, 1, custom)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChanges.WithLabelValues("BOOKED")))
	assert.True(t, strings.Contains(buf.String(), "status_change"))
	assert.Contains(t, buf.String(), "session_id=s1")
}

func TestChain_Empty(t *testing.T) {
	hooks := observability.Chain()
	assert.Nil(t, hooks.OnDecision)
}
