package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hificopy/formflow/internal/logging"
	"github.com/hificopy/formflow/internal/validator"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed save lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates flow persistence, ensuring saves of one form never interleave.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker         ports.DistributedLocker
	lockTTL        time.Duration
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	blockOnWarning bool
	now            func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers the validation hook.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithStrictWarnings makes warnings block a save, like errors.
func WithStrictWarnings() Option {
	return func(m *Manager) {
		m.blockOnWarning = true
	}
}

// NewManager creates a new Manager on the given flow store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(formID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[formID]
	if !exists {
		entry = &lockEntry{}
		m.locks[formID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(formID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[formID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, formID)
	}
}

// Validate runs the graph validator and emits the validation hook.
func (m *Manager) Validate(ctx context.Context, flow *domain.Flow) *domain.ValidationReport {
	report := validator.Validate(flow.Questions, flow.Endings)
	if m.hooks.OnValidation != nil {
		m.hooks.OnValidation(ctx, &domain.ValidationEvent{
			EventBase: domain.EventBase{Timestamp: m.now(), Type: domain.EventValidation},
			FormID:    flow.ID,
			Errors:    len(report.Errors),
			Warnings:  len(report.Warnings),
		})
	}
	return report
}

// Load retrieves a flow.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Flow, error) {
	return m.store.Load(ctx, id)
}

// Save validates and persists a flow. Hard errors (and warnings in strict
// mode) reject the save with a *domain.InvalidFlowError. Unknown scoring keys
// are dropped from the stored copy. The stored flow is returned.
func (m *Manager) Save(ctx context.Context, flow *domain.Flow) (*domain.Flow, *domain.ValidationReport, error) {
	if flow.ID == "" {
		return nil, nil, fmt.Errorf("%w: flow has no id", domain.ErrInvalidFlow)
	}

	var (
		saved  *domain.Flow
		report *domain.ValidationReport
	)
	err := m.WithLock(ctx, flow.ID, func(ctx context.Context) error {
		var err error
		saved, report, err = m.save(ctx, flow.Clone())
		return err
	})
	return saved, report, err
}

// Edit loads a flow, applies fn to a copy and saves it, all under the form lock.
// The save is skipped when fn returns an error.
func (m *Manager) Edit(ctx context.Context, id string, fn func(*domain.Flow) error) (*domain.Flow, *domain.ValidationReport, error) {
	var (
		saved  *domain.Flow
		report *domain.ValidationReport
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		flow, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(flow); err != nil {
			return err
		}
		flow.ID = id
		saved, report, err = m.save(ctx, flow)
		return err
	})
	return saved, report, err
}

func (m *Manager) save(ctx context.Context, flow *domain.Flow) (*domain.Flow, *domain.ValidationReport, error) {
	report := m.Validate(ctx, flow)
	if !report.Valid || (m.blockOnWarning && len(report.Warnings) > 0) {
		m.logger.Info("flow rejected",
			"form_id", flow.ID,
			"errors", len(report.Errors),
			"warnings", len(report.Warnings),
		)
		return nil, report, &domain.InvalidFlowError{Report: report}
	}

	flow.Questions = validator.PruneScoring(flow.Questions)
	if flow.Kind == "" {
		flow.Kind = domain.FlowKindForm
	}

	prev, err := m.store.Load(ctx, flow.ID)
	switch {
	case err == nil:
		flow.Version = prev.Version + 1
	case errors.Is(err, domain.ErrFlowNotFound):
		flow.Version = 1
	default:
		return nil, report, fmt.Errorf("failed to read current version: %w", err)
	}
	flow.UpdatedAt = m.now().UTC()

	if err := m.store.Save(ctx, flow); err != nil {
		return nil, report, fmt.Errorf("failed to save flow %q: %w", flow.ID, err)
	}
	m.logger.Debug("flow saved", "form_id", flow.ID, "version", flow.Version, "warnings", len(report.Warnings))
	return flow, report, nil
}

// Delete removes a flow.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

// WithLock executes fn while holding the lock for the form.
func (m *Manager) WithLock(ctx context.Context, formID string, fn func(context.Context) error) error {
	entry := m.acquire(formID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(formID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "form:"+formID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"form_id", formID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
