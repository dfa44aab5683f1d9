package memory

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hificopy/formflow/pkg/domain"
)

// NewFlowStoreFromJSON creates a flow store seeded from raw JSON documents
// keyed by form id. A document without an id takes its key.
func NewFlowStoreFromJSON(docs map[string]string) (*FlowStore, error) {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flows := make([]*domain.Flow, 0, len(docs))
	for _, k := range keys {
		var f domain.Flow
		if err := json.Unmarshal([]byte(docs[k]), &f); err != nil {
			return nil, fmt.Errorf("failed to decode flow %q: %w", k, err)
		}
		if f.ID == "" {
			f.ID = k
		}
		if f.ID != k {
			return nil, fmt.Errorf("flow %q declares id %q", k, f.ID)
		}
		flows = append(flows, &f)
	}
	return NewFlowStore(flows...), nil
}
