package autosave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
)

// Outcome is the user-visible result of a save.
type Outcome string

const (
	// OutcomeSaved means every pending change was confirmed.
	OutcomeSaved Outcome = "saved"
	// OutcomeNotSaved means all attempts failed; the answers are kept locally.
	OutcomeNotSaved Outcome = "not_saved"
	// OutcomeSuperseded means a newer save already persisted this change.
	OutcomeSuperseded Outcome = "superseded"
	// OutcomeSuppressed means the session no longer saves (disqualified or booked).
	OutcomeSuppressed Outcome = "suppressed"
)

// SaveState describes the last save of a pipeline.
type SaveState struct {
	Outcome      Outcome   `json:"outcome"`
	Attempts     int       `json:"attempts"`
	SessionID    string    `json:"sessionId,omitempty"`
	Disqualified bool      `json:"disqualified,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
	Err          error     `json:"-"`
}

// Pipeline auto-saves one respondent session. It is safe for concurrent use.
type Pipeline struct {
	sink        ports.AnswerSink
	formID      string
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	backoff     RetryStrategy
	timeouts    RetryStrategy
	maxAttempts int
	sleep       Sleeper
	now         func() time.Time

	// sendMu serializes network calls; mu guards the fields below it.
	sendMu sync.Mutex
	mu     sync.Mutex

	answers   domain.Answers
	step      int
	sessionID string
	leadID    string
	status    domain.SessionStatus
	reason    string
	version   uint64
	intended  map[string]uint64
	confirmed map[string]uint64
	last      SaveState

	wg sync.WaitGroup
}

// New creates a pipeline that saves through sink.
func New(sink ports.AnswerSink, opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:        sink,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		backoff:     DefaultBackoff,
		timeouts:    DefaultBackoff,
		maxAttempts: DefaultMaxAttempts,
		sleep:       sleepContext,
		now:         time.Now,
		answers:     domain.Answers{},
		status:      domain.StatusNew,
		intended:    make(map[string]uint64),
		confirmed:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record applies one answer locally and saves it. A nil value clears the answer.
// Persistence failures are reported in the SaveState, never as an error; the
// error is domain.ErrSessionClosed for suppressed sessions.
func (p *Pipeline) Record(ctx context.Context, field string, value any, step int) (SaveState, error) {
	return p.RecordAll(ctx, domain.Answers{field: value}, step)
}

// RecordAll applies several answers locally and saves them in one delta.
func (p *Pipeline) RecordAll(ctx context.Context, values domain.Answers, step int) (SaveState, error) {
	if st, err := p.stage(values, step); err != nil {
		return st, err
	}
	return p.flush(ctx), nil
}

// RecordAsync is Record without waiting for the network. The local answer set
// is updated before it returns; the channel receives the save outcome.
func (p *Pipeline) RecordAsync(ctx context.Context, field string, value any, step int) <-chan SaveState {
	ch := make(chan SaveState, 1)
	if st, err := p.stage(domain.Answers{field: value}, step); err != nil {
		st.Err = err
		ch <- st
		close(ch)
		return ch
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ch <- p.flush(ctx)
		close(ch)
	}()
	return ch
}

// Wait blocks until every RecordAsync save has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Retry re-sends every change that is not confirmed yet.
func (p *Pipeline) Retry(ctx context.Context) SaveState {
	return p.flush(ctx)
}

// Qualify marks the session as qualified.
func (p *Pipeline) Qualify(ctx context.Context) error {
	return p.transition(ctx, domain.StatusQualified, "")
}

// Disqualify ends the session locally, e.g. after a disqualify decision.
func (p *Pipeline) Disqualify(ctx context.Context, reason string) error {
	return p.transition(ctx, domain.StatusDisqualified, reason)
}

// Book marks a qualified session as booked.
func (p *Pipeline) Book(ctx context.Context) error {
	return p.transition(ctx, domain.StatusBooked, "")
}

// Status returns the session status.
func (p *Pipeline) Status() domain.SessionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Reason returns the disqualification reason, if any.
func (p *Pipeline) Reason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}

// SessionID returns the pinned session id, empty until the first successful save.
func (p *Pipeline) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// LeadID returns the lead id reported by the collaborator, if any.
func (p *Pipeline) LeadID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leadID
}

// Answers returns a copy of the local answer set.
func (p *Pipeline) Answers() domain.Answers {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.answers.Clone()
}

// Pending reports whether some local change is not confirmed yet.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for field, v := range p.intended {
		if v > p.confirmed[field] {
			return true
		}
	}
	return false
}

// SaveState returns the result of the last save.
func (p *Pipeline) SaveState() SaveState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pipeline) stage(values domain.Answers, step int) (SaveState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status.Suppressed() {
		return SaveState{Outcome: OutcomeSuppressed, SessionID: p.sessionID, At: p.now()}, domain.ErrSessionClosed
	}

	p.answers.Merge(values)
	for field := range values {
		p.version++
		p.intended[field] = p.version
	}
	p.step = step

	if p.status == domain.StatusNew {
		p.setStatus(context.Background(), domain.StatusInProgress, "")
	}
	return SaveState{}, nil
}

// pending builds the delta of every field whose latest version is unconfirmed.
func (p *Pipeline) pending() (domain.ProgressUpdate, map[string]uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	versions := make(map[string]uint64)
	delta := domain.Answers{}
	for field, v := range p.intended {
		if v <= p.confirmed[field] {
			continue
		}
		versions[field] = v
		delta[field] = p.answers[field]
	}
	if len(versions) == 0 {
		return domain.ProgressUpdate{}, nil, false
	}
	return domain.ProgressUpdate{
		FormID:      p.formID,
		SessionID:   p.sessionID,
		Answers:     delta.Clone(),
		CurrentStep: p.step,
	}, versions, true
}

func (p *Pipeline) flush(ctx context.Context) SaveState {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.backoff.SleepDuration(attempt-1, lastErr)
			if err := p.sleep(ctx, delay); err != nil {
				return p.record(SaveState{Outcome: OutcomeNotSaved, Attempts: attempt, Err: err})
			}
		}

		if p.Status().Suppressed() {
			return p.record(SaveState{Outcome: OutcomeSuppressed, Attempts: attempt})
		}

		update, versions, ok := p.pending()
		if !ok {
			if attempt == 0 {
				// Everything was confirmed by an earlier save.
				return p.record(SaveState{Outcome: OutcomeSuperseded})
			}
			return p.record(SaveState{Outcome: OutcomeSuperseded, Attempts: attempt})
		}

		res, err := p.send(ctx, update, attempt)
		if err == nil {
			return p.record(p.confirm(ctx, versions, res, attempt+1))
		}
		lastErr = err

		var se *domain.StatusError
		if errors.As(err, &se) && se.RateLimited() {
			p.logger.Warn("auto-save rate limited", "attempt", attempt+1, "session_id", update.SessionID)
		} else {
			p.logger.Warn("auto-save attempt failed", "attempt", attempt+1, "session_id", update.SessionID, "err", err)
		}
	}

	p.logger.Error("auto-save gave up, answers kept locally", "attempts", p.maxAttempts, "err", lastErr)
	return p.record(SaveState{
		Outcome:  OutcomeNotSaved,
		Attempts: p.maxAttempts,
		Err:      fmt.Errorf("save failed after %d attempts: %w", p.maxAttempts, lastErr),
	})
}

func (p *Pipeline) send(ctx context.Context, update domain.ProgressUpdate, attempt int) (domain.SaveResult, error) {
	actx := ctx
	if timeout := p.timeouts.SleepDuration(attempt, nil); timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := p.now()
	res, err := p.sink.SaveProgress(actx, update)
	if err == nil && actx.Err() != nil {
		// The sink ignored the deadline; a late reply still counts as a timeout.
		err = actx.Err()
	}

	if p.hooks.OnSaveAttempt != nil {
		p.hooks.OnSaveAttempt(ctx, &domain.SaveAttemptEvent{
			EventBase: domain.EventBase{Timestamp: p.now(), Type: domain.EventSaveAttempt},
			SessionID: update.SessionID,
			Attempt:   attempt + 1,
			Duration:  p.now().Sub(start),
			Err:       err,
		})
	}
	return res, err
}

// confirm marks the sent versions as persisted, pins the session id and
// applies an out-of-band disqualification.
func (p *Pipeline) confirm(ctx context.Context, versions map[string]uint64, res domain.SaveResult, attempts int) SaveState {
	p.mu.Lock()
	defer p.mu.Unlock()

	for field, v := range versions {
		if v > p.confirmed[field] {
			p.confirmed[field] = v
		}
	}

	if p.sessionID == "" {
		p.sessionID = res.SessionID
		if p.sessionID == "" {
			p.sessionID = res.LeadID
		}
	} else if res.SessionID != "" && res.SessionID != p.sessionID {
		p.logger.Debug("ignoring session id change", "pinned", p.sessionID, "got", res.SessionID)
	}
	if res.LeadID != "" {
		p.leadID = res.LeadID
	}

	st := SaveState{Outcome: OutcomeSaved, Attempts: attempts, SessionID: p.sessionID}
	if res.Disqualified && !p.status.Suppressed() {
		reason := res.Reason
		p.reason = reason
		p.setStatus(ctx, domain.StatusDisqualified, reason)
		st.Disqualified = true
		st.Reason = reason
	}
	return st
}

func (p *Pipeline) record(st SaveState) SaveState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st.At = p.now()
	if st.SessionID == "" {
		st.SessionID = p.sessionID
	}
	if st.Outcome != OutcomeSuperseded {
		p.last = st
	}
	return st
}

func (p *Pipeline) transition(ctx context.Context, next domain.SessionStatus, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == next {
		return nil
	}
	if !p.status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, p.status, next)
	}
	if reason != "" {
		p.reason = reason
	}
	p.setStatus(ctx, next, reason)
	return nil
}

// setStatus must be called with mu held.
func (p *Pipeline) setStatus(ctx context.Context, next domain.SessionStatus, reason string) {
	prev := p.status
	p.status = next
	p.logger.Info("session status changed", "session_id", p.sessionID, "from", prev, "to", next)
	if p.hooks.OnStatusChange != nil {
		p.hooks.OnStatusChange(ctx, &domain.StatusEvent{
			EventBase: domain.EventBase{Timestamp: p.now(), Type: domain.EventStatusChange},
			SessionID: p.sessionID,
			From:      prev,
			To:        next,
			Reason:    reason,
		})
	}
}
