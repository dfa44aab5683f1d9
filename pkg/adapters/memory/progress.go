package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hificopy/formflow/pkg/domain"
)

type progressKey struct {
	formID    string
	sessionID string
}

// ProgressStore implements ports.ProgressStore in memory.
type ProgressStore struct {
	data map[progressKey]domain.Progress
	mu   sync.RWMutex
}

// NewProgressStore creates a new in-memory progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		data: make(map[progressKey]domain.Progress),
	}
}

func (s *ProgressStore) Save(ctx context.Context, p *domain.Progress) error {
	copied := *p
	copied.Answers = p.Answers.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[progressKey{p.FormID, p.SessionID}] = copied
	return nil
}

func (s *ProgressStore) Load(ctx context.Context, formID, sessionID string) (*domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[progressKey{formID, sessionID}]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	p.Answers = p.Answers.Clone()
	return &p, nil
}

func (s *ProgressStore) Delete(ctx context.Context, formID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, progressKey{formID, sessionID})
	return nil
}

func (s *ProgressStore) List(ctx context.Context, formID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for k := range s.data {
		if k.formID == formID {
			ids = append(ids, k.sessionID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
