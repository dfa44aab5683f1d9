package observability

import (
	"context"
	"net/http"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the formflow collectors.
type Metrics struct {
	registry *prometheus.Registry

	Decisions        *prometheus.CounterVec
	Scores           prometheus.Histogram
	Qualifications   *prometheus.CounterVec
	Validations      *prometheus.CounterVec
	ValidationIssues *prometheus.CounterVec
	SaveAttempts     *prometheus.CounterVec
	SaveDuration     prometheus.Histogram
	StatusChanges    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
// Use Handler to expose them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_decisions_total",
				Help: "Total number of navigation decisions by action",
			},
			[]string{"action"},
		),
		Scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "formflow_lead_score",
				Help:    "Distribution of aggregated lead scores",
				Buckets: []float64{0, 10, 25, 50, 75, 100, 150, 250},
			},
		),
		Qualifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_qualifications_total",
				Help: "Total number of server-side qualification runs by result",
			},
			[]string{"qualification"},
		),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_validations_total",
				Help: "Total number of flow validations by result",
			},
			[]string{"result"},
		),
		ValidationIssues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_validation_issues_total",
				Help: "Total number of validation issues by severity",
			},
			[]string{"severity"},
		),
		SaveAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_save_attempts_total",
				Help: "Total number of auto-save attempts by outcome",
			},
			[]string{"outcome"},
		),
		SaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "formflow_save_attempt_duration_seconds",
				Help:    "Duration of auto-save attempts",
				Buckets: prometheus.DefBuckets,
			},
		),
		StatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_session_status_changes_total",
				Help: "Total number of respondent session status changes by target status",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.Decisions,
		m.Scores,
		m.Qualifications,
		m.Validations,
		m.ValidationIssues,
		m.SaveAttempts,
		m.SaveDuration,
		m.StatusChanges,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			m.Decisions.WithLabelValues(string(e.Decision.Action)).Inc()
		},
		OnScore: func(_ context.Context, e *domain.ScoreEvent) {
			m.Scores.Observe(float64(e.Total))
		},
		OnQualify: func(_ context.Context, e *domain.QualifyEvent) {
			m.Qualifications.WithLabelValues(string(e.Result.Qualification)).Inc()
		},
		OnValidation: func(_ context.Context, e *domain.ValidationEvent) {
			result := "valid"
			if e.Errors > 0 {
				result = "invalid"
			}
			m.Validations.WithLabelValues(result).Inc()
			m.ValidationIssues.WithLabelValues(string(domain.SeverityError)).Add(float64(e.Errors))
			m.ValidationIssues.WithLabelValues(string(domain.SeverityWarning)).Add(float64(e.Warnings))
		},
		OnSaveAttempt: func(_ context.Context, e *domain.SaveAttemptEvent) {
			outcome := "success"
			if e.Err != nil {
				outcome = "failure"
			}
			m.SaveAttempts.WithLabelValues(outcome).Inc()
			m.SaveDuration.Observe(e.Duration.Seconds())
		},
		OnStatusChange: func(_ context.Context, e *domain.StatusEvent) {
			m.StatusChanges.WithLabelValues(string(e.To)).Inc()
		},
	}
}
