// Package logging builds the slog loggers used by the CLI and the server.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Formats accepted by NewWith.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures NewWith.
type Options struct {
	Level  slog.Level
	Format string
	// Writer defaults to os.Stderr so stdout stays free for command output
	// and MCP JSON-RPC.
	Writer io.Writer
}

// New creates a text logger on stderr at the given level.
func New(level slog.Level) *slog.Logger {
	return NewWith(Options{Level: level})
}

// NewWith creates a logger from opts. Attributes named "error" are renamed
// to "err" so every package logs failures under the same key.
func NewWith(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: renameError,
	}
	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func renameError(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
