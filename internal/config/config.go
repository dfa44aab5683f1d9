// Package config loads the formflow server and CLI configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hificopy/formflow/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "FORMFLOW_CONFIG"

// DefaultPath is read when no path is given and EnvConfigPath is unset.
const DefaultPath = "formflow.yaml"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the root configuration document.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	AutoSave AutoSaveConfig `yaml:"autosave" mapstructure:"autosave"`
	Answers  AnswersConfig  `yaml:"answers" mapstructure:"answers"`

	// DisqualifyMessage replaces the generic disqualification copy.
	DisqualifyMessage string `yaml:"disqualify_message" mapstructure:"disqualify_message"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Metrics         bool          `yaml:"metrics" mapstructure:"metrics"`
}

// StorageConfig selects and configures the flow and progress stores.
type StorageConfig struct {
	Driver string      `yaml:"driver" mapstructure:"driver"`
	Path   string      `yaml:"path" mapstructure:"path"`
	Redis  RedisConfig `yaml:"redis" mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, respondent answers
	// are encrypted at rest. FallbackKeys still decrypt during rotation.
	EncryptionKey string   `yaml:"encryption_key" mapstructure:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" mapstructure:"fallback_keys"`
}

// RedisConfig configures the redis adapter.
type RedisConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	Prefix      string        `yaml:"prefix" mapstructure:"prefix"`
	ProgressTTL time.Duration `yaml:"progress_ttl" mapstructure:"progress_ttl"`
	Lock        bool          `yaml:"lock" mapstructure:"lock"`
}

// AutoSaveConfig configures auto-save pipelines created by the host.
type AutoSaveConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// AnswersConfig configures answer validation.
type AnswersConfig struct {
	FreeEmailDomains []string `yaml:"free_email_domains" mapstructure:"free_email_domains"`
	MaxInputSize     int      `yaml:"max_input_size" mapstructure:"max_input_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			Path:   ".formflow",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "formflow:"},
		},
		AutoSave: AutoSaveConfig{
			MaxAttempts: 3,
			Backoff:     time.Second,
			MaxBackoff:  4 * time.Second,
		},
	}
}

// Load reads the configuration from path, or from $FORMFLOW_CONFIG, or from
// DefaultPath. A missing default file yields Default(); a missing explicit
// file is an error. Values in the file override the defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Decode merges a generic map (YAML, JSON or flags) into cfg.
// Durations accept Go duration strings such as "250ms".
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.EncryptionKey != "" {
		for _, k := range append([]string{c.Storage.EncryptionKey}, c.Storage.FallbackKeys...) {
			if _, err := middleware.ParseKey(k); err != nil {
				return fmt.Errorf("storage: %w", err)
			}
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.AutoSave.MaxAttempts < 1 {
		return fmt.Errorf("autosave.max_attempts must be at least 1, got %d", c.AutoSave.MaxAttempts)
	}
	return nil
}

// ParseLevel maps debug|info|warn|error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
