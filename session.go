package formflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hificopy/formflow/pkg/autosave"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
)

// ErrFinished is returned when answering a session that already ended.
var ErrFinished = errors.New("session finished")

// Session walks one respondent through a flow. Navigation is computed
// locally; when a sink is configured every answer is also auto-saved in the
// background and a server-side disqualification ends the session as soon as
// the save that reported it lands. It is safe for concurrent use.
type Session struct {
	engine   *Engine
	flow     *domain.Flow
	pipeline *autosave.Pipeline

	mu       sync.Mutex
	answers  domain.Answers
	current  int
	history  []int
	done     bool
	decision domain.Decision
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	sink     ports.AnswerSink
	autosave []autosave.Option
}

// WithAutoSave saves every answer to sink through an auto-save pipeline.
func WithAutoSave(sink ports.AnswerSink, opts ...autosave.Option) SessionOption {
	return func(c *sessionConfig) {
		c.sink = sink
		c.autosave = append(c.autosave, opts...)
	}
}

// NewSession starts a respondent session at the first question.
func (e *Engine) NewSession(flow *domain.Flow, opts ...SessionOption) *Session {
	var cfg sessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if flow == nil {
		flow = &domain.Flow{}
	}

	s := &Session{
		engine:  e,
		flow:    flow.Clone(),
		answers: domain.Answers{},
	}
	if cfg.sink != nil {
		pipeOpts := append([]autosave.Option{
			autosave.WithFormID(flow.ID),
			autosave.WithLogger(e.logger),
			autosave.WithLifecycleHooks(e.hooks),
		}, cfg.autosave...)
		s.pipeline = autosave.New(cfg.sink, pipeOpts...)
	}
	if len(s.flow.Questions) == 0 {
		s.done = true
		s.decision = domain.Decision{Action: domain.NavSubmit, RuleIndex: -1}
	}
	return s
}

// Flow returns the session's copy of the flow.
func (s *Session) Flow() *domain.Flow {
	return s.flow
}

// Current returns the question to show, or nil once the session is done.
func (s *Session) Current() *domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sync() {
		return nil
	}
	q := s.flow.Questions[s.current]
	return &q
}

// Index returns the position of the current question.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Done reports whether the session reached submit or disqualify.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync()
}

// Decision returns the last navigation decision.
func (s *Session) Decision() domain.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	return s.decision
}

// Answers returns a copy of the collected answers.
func (s *Session) Answers() domain.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// Answer records the answer to the current question and moves on.
// An invalid answer returns a *domain.ValidationError and leaves the session
// where it was.
func (s *Session) Answer(ctx context.Context, value any) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sync() {
		return s.decision, ErrFinished
	}

	q := &s.flow.Questions[s.current]
	if err := s.engine.ValidateAnswer(q, value); err != nil {
		return domain.Decision{}, err
	}
	if value == nil {
		delete(s.answers, q.ID)
	} else {
		s.answers[q.ID] = value
	}
	if s.pipeline != nil {
		s.pipeline.RecordAsync(ctx, q.ID, value, s.current+1)
	}

	d := s.engine.Resolve(ctx, s.flow, s.current, s.answers)
	if d.Action.Terminal() {
		return s.finish(ctx, d), nil
	}
	s.history = append(s.history, s.current)
	s.current = d.NextIndex
	s.decision = d
	return d, nil
}

// sync ends the session when the server disqualified the respondent and
// reports whether the session is done. mu must be held.
func (s *Session) sync() bool {
	if s.done || s.pipeline == nil {
		return s.done
	}
	if s.pipeline.Status() == domain.StatusDisqualified {
		s.done = true
		s.decision = domain.Decision{
			Action:    domain.NavDisqualify,
			Message:   s.pipeline.Reason(),
			RuleIndex: -1,
		}
	}
	return s.done
}

// finish must be called with mu held.
func (s *Session) finish(ctx context.Context, d domain.Decision) domain.Decision {
	s.done = true
	s.decision = d
	if s.pipeline == nil {
		return d
	}

	var err error
	switch d.Action {
	case domain.NavDisqualify:
		err = s.pipeline.Disqualify(ctx, d.Message)
	case domain.NavSubmit:
		ending := s.flow.Ending(d.EndingID)
		switch ending.Disposition() {
		case domain.QualificationQualified:
			err = s.pipeline.Qualify(ctx)
		case domain.QualificationDisqualified:
			err = s.pipeline.Disqualify(ctx, ending.Message)
		}
	}
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		s.engine.logger.Warn("session status update failed", "form_id", s.flow.ID, "err", err)
	}
	return d
}

// Back returns to the previously shown question. Answers are kept.
func (s *Session) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sync() || len(s.history) == 0 {
		return false
	}
	s.current = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return true
}

// Score aggregates the lead score of the answers so far.
func (s *Session) Score(ctx context.Context) domain.Score {
	return s.engine.Score(ctx, s.flow, s.Answers())
}

// Ending returns the ending the session reached, if any.
func (s *Session) Ending() *domain.Ending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sync() || s.decision.EndingID == "" {
		return nil
	}
	return s.flow.Ending(s.decision.EndingID)
}

// SaveState returns the last auto-save state; ok is false without a sink.
func (s *Session) SaveState() (autosave.SaveState, bool) {
	if s.pipeline == nil {
		return autosave.SaveState{}, false
	}
	return s.pipeline.SaveState(), true
}

// Status returns the respondent status tracked by the auto-save pipeline.
func (s *Session) Status() domain.SessionStatus {
	if s.pipeline == nil {
		return domain.StatusNew
	}
	return s.pipeline.Status()
}

// Flush waits for background saves and retries anything still pending.
func (s *Session) Flush(ctx context.Context) error {
	if s.pipeline == nil {
		return nil
	}
	s.pipeline.Wait()
	if !s.pipeline.Pending() {
		return nil
	}
	st := s.pipeline.Retry(ctx)
	if st.Outcome == autosave.OutcomeNotSaved {
		return fmt.Errorf("answers not saved after %d attempts: %w", st.Attempts, st.Err)
	}
	return nil
}
