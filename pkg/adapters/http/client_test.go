package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	formhttp "github.com/hificopy/formflow/pkg/adapters/http"
	"github.com/hificopy/formflow/pkg/adapters/memory"
	"github.com/hificopy/formflow/pkg/autosave"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_SaveProgress(t *testing.T) {
	srv := httptest.NewServer(formhttp.NewHandler(forms.NewManager(memory.NewFlowStore(demoFlow()))))
	defer srv.Close()

	client := formhttp.NewClient(srv.URL + "/")
	res, err := client.SaveProgress(context.Background(), domain.ProgressUpdate{
		FormID:  "demo",
		Answers: domain.Answers{"size": "11-50"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.False(t, res.Disqualified)

	_, err = client.SaveProgress(context.Background(), domain.ProgressUpdate{FormID: "missing"})
	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.False(t, statusErr.RateLimited())

	_, err = client.SaveProgress(context.Background(), domain.ProgressUpdate{})
	assert.Error(t, err)
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := formhttp.NewClient(srv.URL).SaveProgress(context.Background(), domain.ProgressUpdate{FormID: "demo"})

	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.RateLimited())
	assert.Equal(t, "slow down", statusErr.Body)
}

func TestClient_WithAutoSavePipeline(t *testing.T) {
	var calls atomic.Int32
	handler := formhttp.NewHandler(forms.NewManager(memory.NewFlowStore(demoFlow())))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	p := autosave.New(formhttp.NewClient(srv.URL),
		autosave.WithFormID("demo"),
		autosave.WithBackoff(autosave.NoDelayStrategy{}),
	)
	ctx := context.Background()

	st, err := p.Record(ctx, "size", "50+", 1)
	require.NoError(t, err)
	assert.Equal(t, autosave.OutcomeSaved, st.Outcome)
	assert.Equal(t, 2, st.Attempts)
	sessionID := p.SessionID()
	require.NotEmpty(t, sessionID)

	st, err = p.Record(ctx, "size", "1-10", 1)
	require.NoError(t, err)
	assert.True(t, st.Disqualified)
	assert.Equal(t, domain.StatusDisqualified, p.Status())
	assert.Equal(t, "Too small", p.Reason())
	assert.Equal(t, sessionID, p.SessionID(), "session id stays pinned")

	st, err = p.Record(ctx, "email", "ana@acme.io", 2)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, autosave.OutcomeSuppressed, st.Outcome)
	assert.EqualValues(t, 3, calls.Load())
}
