package logger

import (
	"io"
	"log/slog"
)

// NewNope creates a no-op logger that discards all output. Use as a
// default where logging is optional.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
