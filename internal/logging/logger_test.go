package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/hificopy/formflow/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestNewWith(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"Text", logging.FormatText, "err=boom"},
		{"JSON", logging.FormatJSON, `"err":"boom"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewWith(logging.Options{Level: slog.LevelInfo, Format: tt.format, Writer: &buf})

			logger.Debug("hidden")
			logger.Warn("save failed", "error", errors.New("boom"))

			assert.NotContains(t, buf.String(), "hidden")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() { logging.NewNop().Error("ignored") })
}
