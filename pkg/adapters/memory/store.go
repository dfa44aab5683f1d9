package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hificopy/formflow/pkg/domain"
)

// FlowStore implements ports.FlowStore in memory.
// Safe for concurrent use.
type FlowStore struct {
	data map[string]*domain.Flow
	mu   sync.RWMutex
}

// NewFlowStore creates a new in-memory flow store.
func NewFlowStore(flows ...*domain.Flow) *FlowStore {
	s := &FlowStore{
		data: make(map[string]*domain.Flow),
	}
	for _, f := range flows {
		s.data[f.ID] = f.Clone()
	}
	return s
}

// Save persists a copy of the flow.
func (s *FlowStore) Save(ctx context.Context, flow *domain.Flow) error {
	copied := flow.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flow.ID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored flow by pointer.
func (s *FlowStore) Load(ctx context.Context, id string) (*domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.data[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return flow.Clone(), nil
}

// Delete removes the flow.
func (s *FlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored form ids, sorted.
func (s *FlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
