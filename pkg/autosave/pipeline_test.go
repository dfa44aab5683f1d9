package autosave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hificopy/formflow/pkg/autosave"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type reply struct {
	result domain.SaveResult
	err    error
}

// scriptedSink answers from a script, then succeeds.
type scriptedSink struct {
	mu      sync.Mutex
	script  []reply
	calls   []domain.ProgressUpdate
	stored  domain.Answers
	onCall  func(n int)
	session string
}

func (s *scriptedSink) SaveProgress(_ context.Context, u domain.ProgressUpdate) (domain.SaveResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, u)
	n := len(s.calls)
	var r reply
	if len(s.script) > 0 {
		r = s.script[0]
		s.script = s.script[1:]
	}
	if r.err == nil {
		if s.stored == nil {
			s.stored = domain.Answers{}
		}
		s.stored.Merge(u.Answers)
		if r.result.SessionID == "" && r.result.LeadID == "" {
			r.result.SessionID = s.session
		}
	}
	hook := s.onCall
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return r.result, r.err
}

func (s *scriptedSink) Calls() []domain.ProgressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ProgressUpdate(nil), s.calls...)
}

// recordingSleeper records backoff delays without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	hook   func(n int)
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	n := len(r.delays)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (r *recordingSleeper) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

var errNetwork = errors.New("connection reset")

func newPipeline(sink *scriptedSink, sleeper *recordingSleeper, opts ...autosave.Option) *autosave.Pipeline {
	base := []autosave.Option{autosave.WithFormID("f1"), autosave.WithSleeper(sleeper.Sleep)}
	return autosave.New(sink, append(base, opts...)...)
}

func TestPipeline_TwoFailuresThenSuccess(t *testing.T) {
	sink := &scriptedSink{session: "s-1", script: []reply{{err: errNetwork}, {err: errNetwork}}}
	sleeper := &recordingSleeper{}
	p := newPipeline(sink, sleeper)

	st, err := p.Record(context.Background(), "email", "ana@acme.io", 1)
	require.NoError(t, err)

	assert.Equal(t, autosave.OutcomeSaved, st.Outcome)
	assert.Equal(t, 3, st.Attempts)
	assert.Len(t, sink.Calls(), 3)

	delays := sleeper.Delays()
	require.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[0], time.Second)
	assert.GreaterOrEqual(t, delays[1], 2*time.Second)

	assert.Equal(t, "s-1", p.SessionID())
	assert.False(t, p.Pending())
	assert.Equal(t, domain.StatusInProgress, p.Status())
}

func TestPipeline_ThreeFailuresKeepsAnswer(t *testing.T) {
	sink := &scriptedSink{session: "s-1", script: []reply{{err: errNetwork}, {err: errNetwork}, {err: errNetwork}}}
	sleeper := &recordingSleeper{}
	p := newPipeline(sink, sleeper)

	st, err := p.Record(context.Background(), "company", "Acme", 0)
	require.NoError(t, err, "persistence failures are not errors")

	assert.Equal(t, autosave.OutcomeNotSaved, st.Outcome)
	assert.Equal(t, 3, st.Attempts)
	assert.ErrorIs(t, st.Err, errNetwork)
	assert.Len(t, sink.Calls(), 3)
	assert.Equal(t, autosave.OutcomeNotSaved, p.SaveState().Outcome)

	assert.Equal(t, "Acme", p.Answers()["company"])
	assert.True(t, p.Pending())
	assert.Empty(t, p.SessionID())

	// The next save carries the unsaved field.
	st = p.Retry(context.Background())
	assert.Equal(t, autosave.OutcomeSaved, st.Outcome)
	calls := sink.Calls()
	assert.Equal(t, "Acme", calls[len(calls)-1].Answers["company"])
	assert.False(t, p.Pending())
}

func TestPipeline_RateLimitedIsRetried(t *testing.T) {
	limited := &domain.StatusError{StatusCode: 429}
	sink := &scriptedSink{session: "s-1", script: []reply{{err: limited}, {err: limited}}}
	sleeper := &recordingSleeper{}
	p := newPipeline(sink, sleeper)

	st, err := p.Record(context.Background(), "q", "a", 0)
	require.NoError(t, err)

	assert.Equal(t, autosave.OutcomeSaved, st.Outcome)
	assert.Len(t, sink.Calls(), 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.Delays())
}

func TestPipeline_AttemptTimeout(t *testing.T) {
	blocking := &blockingSink{}
	p := autosave.New(blocking,
		autosave.WithBackoff(autosave.NoDelayStrategy{}),
		autosave.WithAttemptTimeouts(autosave.ExponentialBackoffStrategy{Base: 5 * time.Millisecond, Factor: 2}),
	)

	st, err := p.Record(context.Background(), "q", "a", 0)
	require.NoError(t, err)

	assert.Equal(t, autosave.OutcomeNotSaved, st.Outcome)
	assert.ErrorIs(t, st.Err, context.DeadlineExceeded)
	assert.Equal(t, 3, blocking.Calls())
}

type blockingSink struct {
	mu    sync.Mutex
	calls int
}

func (b *blockingSink) SaveProgress(ctx context.Context, _ domain.ProgressUpdate) (domain.SaveResult, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-ctx.Done()
	return domain.SaveResult{}, ctx.Err()
}

func (b *blockingSink) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestPipeline_StaleRetryNeverOverwritesNewerValue(t *testing.T) {
	sink := &scriptedSink{session: "s-1", script: []reply{{err: errNetwork}}}
	sleeper := &recordingSleeper{}
	p := newPipeline(sink, sleeper)

	var newer <-chan autosave.SaveState
	sleeper.hook = func(n int) {
		if n == 1 {
			// The respondent edits the field while the first save backs off.
			newer = p.RecordAsync(context.Background(), "budget", "50k", 2)
		}
	}

	st, err := p.Record(context.Background(), "budget", "10k", 1)
	require.NoError(t, err)
	assert.Equal(t, autosave.OutcomeSaved, st.Outcome)

	require.NotNil(t, newer)
	later := <-newer
	p.Wait()
	assert.Equal(t, autosave.OutcomeSuperseded, later.Outcome)

	calls := sink.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "10k", calls[0].Answers["budget"])
	assert.Equal(t, "50k", calls[1].Answers["budget"], "the retry carries the newest value")
	assert.Equal(t, 2, calls[1].CurrentStep)
	assert.Equal(t, "50k", sink.stored["budget"])
	assert.Equal(t, autosave.OutcomeSaved, p.SaveState().Outcome)
}

func TestPipeline_DeltaOnlyCarriesUnconfirmedFields(t *testing.T) {
	sink := &scriptedSink{session: "s-1"}
	p := newPipeline(sink, &recordingSleeper{})
	ctx := context.Background()

	_, err := p.Record(ctx, "a", "1", 0)
	require.NoError(t, err)
	_, err = p.RecordAll(ctx, domain.Answers{"b": "2", "c": []any{"x"}}, 1)
	require.NoError(t, err)
	_, err = p.Record(ctx, "a", nil, 2)
	require.NoError(t, err)

	calls := sink.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, domain.Answers{"a": "1"}, calls[0].Answers)
	assert.Equal(t, domain.Answers{"b": "2", "c": []any{"x"}}, calls[1].Answers)
	assert.Equal(t, domain.Answers{"a": nil}, calls[2].Answers, "cleared answers are sent as null")
	assert.Equal(t, domain.Answers{"b": "2", "c": []any{"x"}}, p.Answers())
}

func TestPipeline_SessionIDIsPinned(t *testing.T) {
	sink := &scriptedSink{script: []reply{
		{result: domain.SaveResult{LeadID: "lead-7"}},
		{result: domain.SaveResult{SessionID: "other", LeadID: "lead-7"}},
	}}
	p := newPipeline(sink, &recordingSleeper{})
	ctx := context.Background()

	_, err := p.Record(ctx, "a", "1", 0)
	require.NoError(t, err)
	assert.Equal(t, "lead-7", p.SessionID())

	_, err = p.Record(ctx, "b", "2", 1)
	require.NoError(t, err)
	assert.Equal(t, "lead-7", p.SessionID())
	assert.Equal(t, "lead-7", p.LeadID())

	calls := sink.Calls()
	assert.Empty(t, calls[0].SessionID)
	assert.Equal(t, "lead-7", calls[1].SessionID)
	assert.Equal(t, "f1", calls[1].FormID)
}

func TestPipeline_ServerDisqualificationSuppressesSaves(t *testing.T) {
	sink := &scriptedSink{session: "s-1", script: []reply{
		{result: domain.SaveResult{SessionID: "s-1", Disqualified: true, Reason: "Budget too low"}},
	}}
	var events []*domain.StatusEvent
	p := newPipeline(sink, &recordingSleeper{}, autosave.WithLifecycleHooks(domain.LifecycleHooks{
		OnStatusChange: func(_ context.Context, ev *domain.StatusEvent) { events = append(events, ev) },
	}))
	ctx := context.Background()

	st, err := p.Record(ctx, "budget", "100", 0)
	require.NoError(t, err)
	assert.True(t, st.Disqualified)
	assert.Equal(t, "Budget too low", st.Reason)
	assert.Equal(t, domain.StatusDisqualified, p.Status())
	assert.Equal(t, "Budget too low", p.Reason())

	st, err = p.Record(ctx, "email", "ana@acme.io", 1)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, autosave.OutcomeSuppressed, st.Outcome)
	assert.Len(t, sink.Calls(), 1)

	ch := p.RecordAsync(ctx, "email", "ana@acme.io", 1)
	got := <-ch
	assert.Equal(t, autosave.OutcomeSuppressed, got.Outcome)
	assert.ErrorIs(t, got.Err, domain.ErrSessionClosed)

	require.Len(t, events, 2)
	assert.Equal(t, domain.StatusInProgress, events[0].To)
	assert.Equal(t, domain.StatusDisqualified, events[1].To)
}

func TestPipeline_BookedSuppressesSaves(t *testing.T) {
	sink := &scriptedSink{session: "s-1"}
	p := newPipeline(sink, &recordingSleeper{})
	ctx := context.Background()

	assert.ErrorIs(t, p.Book(ctx), domain.ErrInvalidTransition, "only qualified sessions can book")

	_, err := p.Record(ctx, "a", "1", 0)
	require.NoError(t, err)
	require.NoError(t, p.Qualify(ctx))
	require.NoError(t, p.Book(ctx))

	_, err = p.Record(ctx, "a", "2", 1)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Len(t, sink.Calls(), 1)
	assert.Equal(t, "1", p.Answers()["a"])
	assert.ErrorIs(t, p.Disqualify(ctx, "late"), domain.ErrInvalidTransition)
}

func TestPipeline_DisqualifyDuringBackoffStopsRetries(t *testing.T) {
	sink := &scriptedSink{session: "s-1", script: []reply{{err: errNetwork}}}
	sleeper := &recordingSleeper{}
	p := newPipeline(sink, sleeper)
	sleeper.hook = func(int) { _ = p.Disqualify(context.Background(), "local rule") }

	st, err := p.Record(context.Background(), "a", "1", 0)
	require.NoError(t, err)

	assert.Equal(t, autosave.OutcomeSuppressed, st.Outcome)
	assert.Len(t, sink.Calls(), 1)
	assert.Equal(t, "local rule", p.Reason())
}

func TestPipeline_CanceledContext(t *testing.T) {
	sink := &scriptedSink{script: []reply{{err: errNetwork}}}
	p := autosave.New(sink)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := p.Record(ctx, "a", "1", 0)
	require.NoError(t, err)
	assert.Equal(t, autosave.OutcomeNotSaved, st.Outcome)
	assert.ErrorIs(t, st.Err, context.Canceled)
	assert.Equal(t, "1", p.Answers()["a"])
}

func TestPipeline_ConcurrentRecords(t *testing.T) {
	sink := &scriptedSink{session: "s-1"}
	p := newPipeline(sink, &recordingSleeper{})

	var wg sync.WaitGroup
	fields := []string{"a", "b", "c", "d", "e"}
	for i, f := range fields {
		wg.Add(1)
		go func(f string, step int) {
			defer wg.Done()
			_, _ = p.Record(context.Background(), f, f, step)
		}(f, i)
	}
	wg.Wait()

	assert.False(t, p.Pending())
	for _, f := range fields {
		assert.Equal(t, f, sink.stored[f])
	}
	assert.LessOrEqual(t, len(sink.Calls()), len(fields))
}
