package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
)

var (
	_ ports.FlowStore     = (*FlowStore)(nil)
	_ ports.ProgressStore = (*ProgressStore)(nil)
)

// ErrInvalidID is returned for ids that cannot be used as file names.
var ErrInvalidID = errors.New("invalid id")

var flowExtensions = []string{".json", ".yaml", ".yml"}

// FlowStore implements ports.FlowStore on a directory.
// Flows are written as JSON; hand-written .yaml/.yml documents are read too.
type FlowStore struct {
	BasePath string
}

// NewFlowStore creates a store rooted at basePath.
// If basePath is empty, it defaults to ".formflow/flows".
func NewFlowStore(basePath string) *FlowStore {
	if basePath == "" {
		basePath = filepath.Join(".formflow", "flows")
	}
	return &FlowStore{BasePath: basePath}
}

// Save writes the flow to <id>.json atomically and removes YAML twins.
func (s *FlowStore) Save(ctx context.Context, flow *domain.Flow) error {
	if err := checkID(flow.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	if err := writeAtomic(s.BasePath, flow.ID+".json", data); err != nil {
		return err
	}
	for _, ext := range flowExtensions[1:] {
		_ = os.Remove(filepath.Join(s.BasePath, flow.ID+ext))
	}
	return nil
}

// Load reads the first of <id>.json, <id>.yaml or <id>.yml.
func (s *FlowStore) Load(ctx context.Context, id string) (*domain.Flow, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	for _, ext := range flowExtensions {
		path := filepath.Join(s.BasePath, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		flow, err := LoadFlow(path)
		if err != nil {
			return nil, err
		}
		flow.ID = id
		return flow, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
}

// Delete removes every file of the flow. Missing files are not an error.
func (s *FlowStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	for _, ext := range flowExtensions {
		err := os.Remove(filepath.Join(s.BasePath, id+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete flow file: %w", err)
		}
	}
	return nil
}

// List returns the sorted ids of all stored flows.
func (s *FlowStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isFlowExt(ext) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isFlowExt(ext string) bool {
	for _, e := range flowExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// writeAtomic writes to a temp file in dir, fsyncs it and renames it over name.
func writeAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
