package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// LoadFlow reads a flow document from path. Files ending in .yaml or .yml
// are parsed as YAML, anything else as JSON. A document without an id takes
// the file name without extension.
func LoadFlow(path string) (*domain.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	flow, err := DecodeFlow(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if flow.ID == "" {
		flow.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return flow, nil
}

// DecodeFlow decodes a JSON or YAML flow document. YAML is normalized through
// JSON so both formats share the same field names.
func DecodeFlow(data []byte, ext string) (*domain.Flow, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse flow yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize flow yaml: %w", err)
		}
		data = converted
	}

	var flow domain.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return &flow, nil
}

// EncodeFlow renders a flow as YAML (for .yaml/.yml) or indented JSON.
func EncodeFlow(flow *domain.Flow, ext string) ([]byte, error) {
	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flow: %w", err)
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	}
	return data, nil
}
