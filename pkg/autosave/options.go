package autosave

import (
	"log/slog"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
)

// DefaultMaxAttempts is the number of send attempts per change.
const DefaultMaxAttempts = 3

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFormID sets the form id sent with every update.
func WithFormID(id string) Option {
	return func(p *Pipeline) {
		p.formID = id
	}
}

// WithSessionID resumes an existing session instead of waiting for the first save to assign one.
func WithSessionID(id string) Option {
	return func(p *Pipeline) {
		p.sessionID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLifecycleHooks registers save-attempt and status-change hooks.
// Hooks must not call back into the pipeline.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// WithBackoff sets the delay between attempts.
func WithBackoff(s RetryStrategy) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.backoff = s
		}
	}
}

// WithAttemptTimeouts sets the per-attempt timeout; attempt k is bounded by s.SleepDuration(k).
func WithAttemptTimeouts(s RetryStrategy) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.timeouts = s
		}
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithSleeper replaces the backoff sleep, mostly for tests.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithInitialAnswers seeds the local answer set, e.g. when resuming. Seeded
// answers are treated as already persisted.
func WithInitialAnswers(answers domain.Answers, step int) Option {
	return func(p *Pipeline) {
		p.answers = answers.Clone()
		p.step = step
	}
}
