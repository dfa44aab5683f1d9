package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
)

// ProgressStore implements ports.ProgressStore as one JSON file per session,
// grouped in a directory per form.
type ProgressStore struct {
	BasePath string
}

// NewProgressStore creates a store rooted at basePath.
// If basePath is empty, it defaults to ".formflow/progress".
func NewProgressStore(basePath string) *ProgressStore {
	if basePath == "" {
		basePath = filepath.Join(".formflow", "progress")
	}
	return &ProgressStore{BasePath: basePath}
}

func (s *ProgressStore) path(formID, sessionID string) (string, error) {
	if err := checkID(formID); err != nil {
		return "", err
	}
	if err := checkID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.BasePath, formID, sessionID+".json"), nil
}

// Save persists the progress atomically.
func (s *ProgressStore) Save(ctx context.Context, p *domain.Progress) error {
	path, err := s.path(p.FormID, p.SessionID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	return writeAtomic(filepath.Dir(path), filepath.Base(path), data)
}

// Load retrieves the progress of a session.
func (s *ProgressStore) Load(ctx context.Context, formID, sessionID string) (*domain.Progress, error) {
	path, err := s.path(formID, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrProgressNotFound, formID, sessionID)
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p domain.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &p, nil
}

// Delete removes the session file.
func (s *ProgressStore) Delete(ctx context.Context, formID, sessionID string) error {
	path, err := s.path(formID, sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress file: %w", err)
	}
	return nil
}

// List returns the sorted session ids of a form.
func (s *ProgressStore) List(ctx context.Context, formID string) ([]string, error) {
	if err := checkID(formID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.BasePath, formID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
