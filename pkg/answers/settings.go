package answers

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Validation kinds recognised in Settings.Validation.
const (
	KindEmail         = "email"
	KindBusinessEmail = "business-email"
	KindPhone         = "phone"
	KindNumber        = "number"
)

// Settings is the typed view of Question.Settings.
type Settings struct {
	Placeholder   string   `mapstructure:"placeholder"`
	Validation    string   `mapstructure:"validation"`
	MinLength     int      `mapstructure:"min_length"`
	MaxLength     int      `mapstructure:"max_length"`
	Min           *float64 `mapstructure:"min"`
	Max           *float64 `mapstructure:"max"`
	MaxSelections int      `mapstructure:"max_selections"`
}

// DecodeSettings decodes free-form question settings. Unknown keys are ignored
// and loosely typed values ("10" for a number) are accepted.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	if len(raw) == 0 {
		return s, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(raw); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}
