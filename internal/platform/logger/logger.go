package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: structured text on stdout.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// Discard returns a logger that drops everything. Tests use it to keep
// output quiet while still exercising logging paths.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
